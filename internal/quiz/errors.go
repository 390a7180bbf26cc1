package quiz

import "errors"

var (
	ErrRegistrationRequired = errors.New("registration required")
	ErrNoQuestions          = errors.New("no questions available for category")
	ErrLoadFailed           = errors.New("failed to load questions")
	ErrNotInProgress        = errors.New("session is not in progress")
	ErrConfirmationRequired = errors.New("submission requires confirmation")
	ErrQuestionIndex        = errors.New("question index out of range")
	ErrUnknownOption        = errors.New("option does not belong to question")
	ErrSnapshotNotFound     = errors.New("snapshot not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrConfigNotFound       = errors.New("cached config not found")
	ErrCheaterNotFound      = errors.New("cheater record not found")
	ErrSessionClosed        = errors.New("session runner has stopped")
	ErrAbandoned            = errors.New("session abandoned")
)
