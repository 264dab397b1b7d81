package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// ExportService renders a session's aggregated results as an Excel workbook
// hosts can download after a session ends.
type ExportService interface {
	ExportSessionResults(ctx context.Context, sessionID uint) ([]byte, error)
}

type exportService struct {
	answers AnswerService
	logger  *slog.Logger
}

func NewExportService(answers AnswerService, logger *slog.Logger) ExportService {
	return &exportService{
		answers: answers,
		logger:  logger,
	}
}

func (s *exportService) ExportSessionResults(ctx context.Context, sessionID uint) ([]byte, error) {
	results, err := s.answers.GetSessionAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if err := s.writeTallySheet(f, results); err != nil {
		return nil, err
	}
	if err := s.writeParticipantSheet(f, results); err != nil {
		return nil, err
	}

	// Drop the default sheet so the workbook opens on the tallies.
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Session results exported",
		"session_id", sessionID,
		"question_count", len(results.Questions),
		"participant_count", len(results.Participants))

	return buf.Bytes(), nil
}

func (s *exportService) writeTallySheet(f *excelize.File, results *SessionResultsResponse) error {
	sheetName := "Tallies"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Question ID", "Question", "Answer", "Count", "Skipped",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, question := range results.Questions {
		for _, bucket := range question.Buckets {
			row := []interface{}{
				question.Question.ID,
				question.Question.Text,
				bucket.Value,
				bucket.Count,
				question.SkippedCount,
			}
			for colIndex, value := range row {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIndex++
		}

		// Questions everyone skipped still get a row.
		if len(question.Buckets) == 0 {
			row := []interface{}{
				question.Question.ID,
				question.Question.Text,
				"",
				0,
				question.SkippedCount,
			}
			for colIndex, value := range row {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIndex++
		}
	}

	return nil
}

func (s *exportService) writeParticipantSheet(f *excelize.File, results *SessionResultsResponse) error {
	sheetName := "Participants"

	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{
		"Participant ID", "Name", "Question ID", "Answer", "Time Taken (s)", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, participant := range results.Participants {
		for _, entry := range participant.Answers {
			row := []interface{}{
				participant.ParticipantID,
				participant.DisplayName,
				entry.QuestionID,
				formatAnswerValue(entry),
				entry.TimeTaken,
				entry.SubmittedAt.Format("2006-01-02 15:04:05"),
			}
			for colIndex, value := range row {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIndex++
		}
	}

	return nil
}

func formatAnswerValue(entry ParticipantAnswerEntry) string {
	if entry.Skipped {
		return "skipped"
	}
	if s, ok := entry.Value.(string); ok {
		return s
	}
	raw, err := json.Marshal(entry.Value)
	if err != nil {
		return ""
	}
	return string(raw)
}
