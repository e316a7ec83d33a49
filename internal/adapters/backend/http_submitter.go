// Package backend contains the HTTP adapters for the rally backend: card
// submission and entry-code redemption.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

// DefaultTimeout bounds a single backend request when none is configured.
const DefaultTimeout = 15 * time.Second

// HTTPSubmitter implements secondary.Submitter with a JSON POST.
type HTTPSubmitter struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPSubmitter creates a submitter posting to url. A nil client gets
// one with DefaultTimeout.
func NewHTTPSubmitter(url string, client *http.Client, logger *zap.Logger) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSubmitter{url: url, client: client, logger: logger}
}

// encode is swapped in tests to exercise the encoding failure path.
var encode = json.Marshal

// Submit posts payload and classifies the response. Only HTTP 200 counts as
// an acknowledgment.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload finalize.Payload) error {
	body, err := encode(payload)
	if err != nil {
		return failure.Wrap(failure.PayloadEncoding, err, "Error encoding JSON: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return failure.Wrap(failure.SubmissionTransportError, err, "Error sending data: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("submission transport error", zap.String("card", payload.CardIdentityCode), zap.Error(err))
		return failure.Wrap(failure.SubmissionTransportError, err, "Error sending data: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.Info("submission response",
		zap.String("card", payload.CardIdentityCode),
		zap.Int("status", resp.StatusCode))

	return finalize.ClassifyStatus(resp.StatusCode)
}

// Ensure HTTPSubmitter implements the interface
var _ secondary.Submitter = (*HTTPSubmitter)(nil)
