package postgres

import (
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/gorm"
)

type repositoryManager struct {
	session   repositories.SessionRepository
	answer    repositories.AnswerRepository
	content   repositories.ContentRepository
	directory repositories.ParticipantDirectory
}

// NewRepository wires all gorm-backed repositories against one database
// handle. The directory can be swapped for the casdoor implementation via
// NewRepositoryWithDirectory.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repositoryManager{
		session:   NewSessionPostgreSQL(db),
		answer:    NewAnswerPostgreSQL(db),
		content:   NewContentPostgreSQL(db),
		directory: NewUserPostgreSQL(db),
	}
}

func NewRepositoryWithDirectory(db *gorm.DB, directory repositories.ParticipantDirectory) repositories.Repository {
	return &repositoryManager{
		session:   NewSessionPostgreSQL(db),
		answer:    NewAnswerPostgreSQL(db),
		content:   NewContentPostgreSQL(db),
		directory: directory,
	}
}

func (r *repositoryManager) Session() repositories.SessionRepository      { return r.session }
func (r *repositoryManager) Answer() repositories.AnswerRepository        { return r.answer }
func (r *repositoryManager) Content() repositories.ContentRepository      { return r.content }
func (r *repositoryManager) Directory() repositories.ParticipantDirectory { return r.directory }
