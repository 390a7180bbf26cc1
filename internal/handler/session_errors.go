package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
)

// sessionError maps quiz and session service errors onto the API taxonomy.
func sessionError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, quiz.ErrRegistrationRequired):
		return http.StatusNotFound, response.ErrRegistrationRequired
	case errors.Is(err, service.ErrSessionActive):
		return http.StatusConflict, response.ErrSessionActive
	case errors.Is(err, quiz.ErrNotInProgress):
		return http.StatusConflict, response.ErrSessionNotInProgress
	case errors.Is(err, quiz.ErrConfirmationRequired):
		return http.StatusConflict, response.ErrConfirmationRequired
	case errors.Is(err, quiz.ErrQuestionIndex), errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusBadRequest, response.ErrInvalidPayload
	case errors.Is(err, quiz.ErrNoQuestions):
		return http.StatusNotFound, response.ErrNoQuestions
	case errors.Is(err, quiz.ErrLoadFailed):
		return http.StatusBadGateway, response.ErrLoadFailed
	case errors.Is(err, quiz.ErrResultNotFound):
		return http.StatusNotFound, response.ErrResultNotFound
	case errors.Is(err, quiz.ErrCheaterNotFound), errors.Is(err, quiz.ErrSnapshotNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, quiz.ErrSessionClosed):
		return http.StatusServiceUnavailable, response.ErrSessionNotInProgress
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, response.ErrInternal
	}
	return http.StatusInternalServerError, response.ErrInternal
}
