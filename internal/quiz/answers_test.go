package quiz

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capitalQuestions() []model.Question {
	return []model.Question{
		{
			ID: uuid.New(), Text: "Capital of France?", Category: "geo", Marks: 2,
			Options: []model.Option{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
		},
		{
			ID: uuid.New(), Text: "Capital of Japan?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Osaka"}, {Text: "Tokyo", IsCorrect: true}},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestAnswerStoreKeys(t *testing.T) {
	s := NewAnswerStore(capitalQuestions(), nil)

	answers := s.Answers()
	require.Len(t, answers, 2)
	for i := 0; i < 2; i++ {
		v, ok := answers[i]
		assert.True(t, ok, "index %d present", i)
		assert.Nil(t, v)
	}
}

func TestAnswerStoreSelect(t *testing.T) {
	s := NewAnswerStore(capitalQuestions(), nil)
	at := time.Now()

	changed, err := s.Select(0, "Lyon", at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Select(0, "Lyon", at)
	require.NoError(t, err)
	assert.False(t, changed, "re-selecting the same option is a no-op")

	changed, err = s.Select(0, "Paris", at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Paris", *s.Answers()[0])
	assert.Equal(t, at, s.LastActivity())

	_, err = s.Select(2, "Paris", at)
	assert.ErrorIs(t, err, ErrQuestionIndex)

	_, err = s.Select(-1, "Paris", at)
	assert.ErrorIs(t, err, ErrQuestionIndex)

	_, err = s.Select(1, "Kyoto", at)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestAnswerStoreProgress(t *testing.T) {
	s := NewAnswerStore(capitalQuestions(), nil)
	assert.Equal(t, Progress{Answered: 0, Remaining: 2, Percent: 0}, s.Progress())

	_, err := s.Select(1, "Tokyo", time.Now())
	require.NoError(t, err)
	assert.Equal(t, Progress{Answered: 1, Remaining: 1, Percent: 50}, s.Progress())
}

func TestAnswerStoreSeedDropsStaleAnswers(t *testing.T) {
	seed := map[int]*string{0: strPtr("Paris"), 1: strPtr("Kyoto"), 7: strPtr("Tokyo")}
	s := NewAnswerStore(capitalQuestions(), seed)

	answers := s.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, "Paris", *answers[0])
	assert.Nil(t, answers[1])
}

func TestAnswersReturnsCopy(t *testing.T) {
	s := NewAnswerStore(capitalQuestions(), nil)
	_, err := s.Select(0, "Paris", time.Now())
	require.NoError(t, err)

	answers := s.Answers()
	*answers[0] = "Lyon"
	assert.Equal(t, "Paris", *s.Answers()[0])
}
