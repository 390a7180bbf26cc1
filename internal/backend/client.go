package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/response"
)

// Endpoints of the quiz backend REST API.
const (
	QuestionsPath = "/api/v1/quiz/questions/"
	ConfigPath    = "/api/v1/config"
	SubmitPath    = "/api/v1/quiz/submit"
	BeaconPath    = "/api/v1/quiz/beacon"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Status int
	Code   response.ErrCode
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("quiz backend: %d %s: %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("quiz backend: unexpected status %d", e.Status)
}

// QuestionsPayload is the data of GET /api/v1/quiz/questions/:category.
type QuestionsPayload struct {
	Questions []model.Question `json:"questions"`
}

// ConfigPayload is the data of GET /api/v1/config.
type ConfigPayload struct {
	Config model.QuizConfig `json:"config"`
}

// Client talks to a remote quiz backend. Failures are returned as-is; the
// session falls back to cached state on its own.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

var _ quiz.Backend = (*Client)(nil)

// NewClient creates a Client for baseURL authenticating with the service
// token. Every request is bounded by timeout.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend_client").Logger(),
	}
}

func (c *Client) Questions(ctx context.Context, category string) ([]model.Question, error) {
	var payload QuestionsPayload
	if err := c.do(ctx, http.MethodGet, QuestionsPath+url.PathEscape(category), nil, &payload); err != nil {
		return nil, err
	}
	if payload.Questions == nil {
		payload.Questions = []model.Question{}
	}
	return payload.Questions, nil
}

func (c *Client) Config(ctx context.Context) (*model.QuizConfig, error) {
	var payload ConfigPayload
	if err := c.do(ctx, http.MethodGet, ConfigPath, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Config, nil
}

func (c *Client) Submit(ctx context.Context, sub model.Submission) error {
	return c.do(ctx, http.MethodPost, SubmitPath, sub, nil)
}

func (c *Client) Beacon(ctx context.Context, b model.Beacon) error {
	return c.do(ctx, http.MethodPost, BeaconPath, b, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, data interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	envelope := struct {
		Data  json.RawMessage     `json:"data"`
		Error *response.ErrorBody `json:"error"`
	}{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		if decodeErr == nil && envelope.Error != nil {
			se.Code = envelope.Error.Code
			se.Msg = envelope.Error.Message
		}
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Backend request rejected")
		return se
	}

	if data == nil {
		return nil
	}
	if decodeErr != nil {
		if errors.Is(decodeErr, io.EOF) {
			return fmt.Errorf("%s %s: empty response", method, path)
		}
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
