package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/quizlive/session-service/internal/events"
	"github.com/quizlive/session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newSequencerFixture(t *testing.T) (*memRepository, *events.MockEventPublisher, SessionService, SequencerService) {
	t.Helper()
	repo, publisher, sessions := newSessionFixture(t)
	sequencer := NewSequencerService(repo, publisher, testLogger())
	return repo, publisher, sessions, sequencer
}

func startedSession(t *testing.T, sessions SessionService) *models.Session {
	t.Helper()
	ctx := context.Background()
	created, err := sessions.Create(ctx, &CreateSessionRequest{QuizID: 1, HostID: "host-1"})
	require.NoError(t, err)
	session, err := sessions.Start(ctx, created.Session.ID, created.Session.JoinCode)
	require.NoError(t, err)
	return session
}

func TestBuildSequence_ConcatenationFallback(t *testing.T) {
	quiz := &models.Quiz{ID: 1}
	questions := []*models.Question{{ID: 1}, {ID: 2}}
	slides := []*models.Slide{{ID: 10}, {ID: 11}}

	sequence := BuildSequence(quiz, questions, slides)

	require.Len(t, sequence, 4)
	assert.Equal(t, models.ContentRef{ID: 1, Type: models.ContentQuestion}, sequence[0])
	assert.Equal(t, models.ContentRef{ID: 2, Type: models.ContentQuestion}, sequence[1])
	assert.Equal(t, models.ContentRef{ID: 10, Type: models.ContentSlide}, sequence[2])
	assert.Equal(t, models.ContentRef{ID: 11, Type: models.ContentSlide}, sequence[3])
}

func TestBuildSequence_ExplicitOrderWins(t *testing.T) {
	order, err := json.Marshal([]models.ContentRef{
		{ID: 10, Type: models.ContentSlide},
		{ID: 2, Type: models.ContentQuestion},
		{ID: 1, Type: models.ContentQuestion},
	})
	require.NoError(t, err)

	quiz := &models.Quiz{ID: 1, ItemOrder: datatypes.JSON(order)}
	questions := []*models.Question{{ID: 1}, {ID: 2}}
	slides := []*models.Slide{{ID: 10}}

	sequence := BuildSequence(quiz, questions, slides)

	require.Len(t, sequence, 3)
	assert.Equal(t, models.ContentRef{ID: 10, Type: models.ContentSlide}, sequence[0])
	assert.Equal(t, models.ContentRef{ID: 2, Type: models.ContentQuestion}, sequence[1])
	assert.Equal(t, models.ContentRef{ID: 1, Type: models.ContentQuestion}, sequence[2])
}

func TestBuildSequence_ExplicitOrderDropsMissingItems(t *testing.T) {
	order, err := json.Marshal([]models.ContentRef{
		{ID: 1, Type: models.ContentQuestion},
		{ID: 99, Type: models.ContentQuestion},
		{ID: 10, Type: models.ContentSlide},
	})
	require.NoError(t, err)

	quiz := &models.Quiz{ID: 1, ItemOrder: datatypes.JSON(order)}
	sequence := BuildSequence(quiz, []*models.Question{{ID: 1}}, []*models.Slide{{ID: 10}})

	require.Len(t, sequence, 2)
	assert.Equal(t, uint(1), sequence[0].ID)
	assert.Equal(t, uint(10), sequence[1].ID)
}

func TestDecodeSequence_Unfrozen(t *testing.T) {
	_, err := DecodeSequence(nil)
	assert.ErrorIs(t, err, ErrSequenceNotFrozen)
}

func TestSequencer_AdvanceSlideDeletedAfterStart(t *testing.T) {
	ctx := context.Background()
	repo, _, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)

	// The frozen order still references slide 20 after it is deleted.
	delete(repo.slides, 20)

	_, err := sequencer.Advance(ctx, session.ID, session.JoinCode)
	require.NoError(t, err)
	_, err = sequencer.Advance(ctx, session.ID, session.JoinCode)
	require.NoError(t, err)

	_, err = sequencer.Advance(ctx, session.ID, session.JoinCode)
	assert.ErrorIs(t, err, ErrSlideNotFound)
	assert.True(t, IsNotFound(err))
}

func TestSequencer_AdvanceWalksInOrder(t *testing.T) {
	ctx := context.Background()
	_, publisher, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)
	publisher.ClearEvents()

	// Fixture quiz: questions 10 and 11, then slide 20.
	first, err := sequencer.Advance(ctx, session.ID, session.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, models.ContentQuestion, first.ItemType)
	require.NotNil(t, first.Question)
	assert.Equal(t, uint(10), first.Question.ID)

	second, err := sequencer.Advance(ctx, session.ID, session.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, uint(11), second.Question.ID)

	third, err := sequencer.Advance(ctx, session.ID, session.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Index)
	assert.Equal(t, models.ContentSlide, third.ItemType)
	require.NotNil(t, third.Slide)
	assert.Equal(t, uint(20), third.Slide.ID)

	_, err = sequencer.Advance(ctx, session.ID, session.JoinCode)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
	assert.True(t, IsExhausted(err))

	published := publisher.PublishedEvents()
	require.Len(t, published, 3)
	for i, event := range published {
		assert.Equal(t, events.EventSessionAdvanced, event.Type)
		data, ok := event.Data.(events.SessionAdvancedEvent)
		require.True(t, ok)
		assert.Equal(t, i, data.Index)
	}
}

func TestSequencer_AdvanceRequiresInProgress(t *testing.T) {
	ctx := context.Background()
	_, _, sessions, sequencer := newSequencerFixture(t)

	created, err := sessions.Create(ctx, &CreateSessionRequest{QuizID: 1, HostID: "host-1"})
	require.NoError(t, err)

	_, err = sequencer.Advance(ctx, created.Session.ID, created.Session.JoinCode)
	assert.True(t, IsInvalidState(err))

	_, err = sessions.Start(ctx, created.Session.ID, created.Session.JoinCode)
	require.NoError(t, err)
	_, err = sessions.End(ctx, created.Session.ID, created.Session.JoinCode)
	require.NoError(t, err)

	_, err = sequencer.Advance(ctx, created.Session.ID, created.Session.JoinCode)
	assert.True(t, IsInvalidState(err))
}

func TestSequencer_AdvanceWrongIdentity(t *testing.T) {
	ctx := context.Background()
	_, _, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)

	_, err := sequencer.Advance(ctx, session.ID, "000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sequencer.Advance(ctx, session.ID+100, session.JoinCode)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSequencer_ConcurrentAdvanceMovesOneStep(t *testing.T) {
	ctx := context.Background()
	repo, publisher, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)
	publisher.ClearEvents()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*AdvanceResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = sequencer.Advance(ctx, session.ID, session.JoinCode)
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, every caller either saw a real item
	// or the exhausted condition, and callers who saw the same index saw
	// the same item.
	itemAtIndex := make(map[int]uint)
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], ErrSequenceExhausted)
			continue
		}
		var itemID uint
		switch results[i].ItemType {
		case models.ContentQuestion:
			require.NotNil(t, results[i].Question)
			itemID = results[i].Question.ID
		case models.ContentSlide:
			require.NotNil(t, results[i].Slide)
			itemID = results[i].Slide.ID
		}
		if seen, ok := itemAtIndex[results[i].Index]; ok {
			assert.Equal(t, seen, itemID)
		} else {
			itemAtIndex[results[i].Index] = itemID
		}
	}

	// One notification per cursor step: published indexes are distinct and
	// their count matches how far the cursor actually moved.
	current, err := repo.Session().GetByID(ctx, session.ID)
	require.NoError(t, err)

	published := publisher.PublishedEvents()
	require.Len(t, published, current.CurrentIndex+1)
	seenIndexes := make(map[int]bool)
	for _, event := range published {
		data, ok := event.Data.(events.SessionAdvancedEvent)
		require.True(t, ok)
		assert.False(t, seenIndexes[data.Index], "index %d notified twice", data.Index)
		seenIndexes[data.Index] = true
	}
}

func TestSequencer_IndexStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	_, _, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)

	last := -1
	for {
		resp, err := sequencer.Advance(ctx, session.ID, session.JoinCode)
		if err != nil {
			assert.ErrorIs(t, err, ErrSequenceExhausted)
			break
		}
		assert.Greater(t, resp.Index, last)
		last = resp.Index
	}
	assert.Equal(t, 2, last)
}

func TestSequencer_FrozenOrderIgnoresLaterQuizEdits(t *testing.T) {
	ctx := context.Background()
	repo, _, sessions, sequencer := newSequencerFixture(t)
	session := startedSession(t, sessions)

	// A question added after start must not appear in this session.
	repo.addQuestion(&models.Question{ID: 12, QuizID: 1, Text: "Added later"})

	seen := 0
	for {
		if _, err := sequencer.Advance(ctx, session.ID, session.JoinCode); err != nil {
			break
		}
		seen++
	}
	assert.Equal(t, 3, seen)
}
