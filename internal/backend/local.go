// Package backend provides the quiz.Backend a session host talks to: either
// the in-process services or a remote quiz backend over HTTP.
package backend

import (
	"context"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
)

// QuestionSource lists the questions of a category, correctness included.
type QuestionSource interface {
	ByCategory(ctx context.Context, category string) ([]model.Question, error)
}

// ConfigSource returns the current quiz configuration.
type ConfigSource interface {
	QuizConfig(ctx context.Context) (*model.QuizConfig, error)
}

// Queue accepts outcomes for asynchronous persistence.
type Queue interface {
	QueueSubmission(ctx context.Context, sub model.Submission) error
	QueueBeacon(ctx context.Context, b model.Beacon) error
}

// Local serves sessions from services running in the same process.
type Local struct {
	questions QuestionSource
	config    ConfigSource
	queue     Queue
}

var _ quiz.Backend = (*Local)(nil)

// NewLocal creates a Local backend.
func NewLocal(questions QuestionSource, config ConfigSource, queue Queue) *Local {
	return &Local{questions: questions, config: config, queue: queue}
}

func (l *Local) Questions(ctx context.Context, category string) ([]model.Question, error) {
	return l.questions.ByCategory(ctx, category)
}

func (l *Local) Config(ctx context.Context) (*model.QuizConfig, error) {
	return l.config.QuizConfig(ctx)
}

func (l *Local) Submit(ctx context.Context, sub model.Submission) error {
	return l.queue.QueueSubmission(ctx, sub)
}

func (l *Local) Beacon(ctx context.Context, b model.Beacon) error {
	return l.queue.QueueBeacon(ctx, b)
}
