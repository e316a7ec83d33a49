package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/redeem"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

// HTTPRedeemer implements secondary.Redeemer with a form-encoded POST.
type HTTPRedeemer struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPRedeemer creates a redeemer posting to url.
func NewHTTPRedeemer(url string, client *http.Client, logger *zap.Logger) *HTTPRedeemer {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPRedeemer{url: url, client: client, logger: logger}
}

// flexInt accepts a JSON number or a numeric string. The backend has sent
// both over time.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// redemptionResponse covers both response shapes: the legacy
// {success, rally_code, eq_number} and the richer equipe/kaart variant.
type redemptionResponse struct {
	Success   *bool   `json:"success"`
	RallyCode string  `json:"rally_code"`
	EqNumber  flexInt `json:"eq_number"`

	Rallycode string  `json:"rallycode"`
	Equipenr  flexInt `json:"equipenr"`
	Equipeid  flexInt `json:"equipeid"`
	Kaartnr   flexInt `json:"kaartnr"`
	Kaartid   flexInt `json:"kaartid"`
}

func (r redemptionResponse) toRedemption() (*redeem.Redemption, bool) {
	if r.Rallycode != "" {
		return &redeem.Redemption{
			Code:             r.Rallycode,
			Name:             r.Rallycode,
			CompetitorNumber: int(r.Equipenr),
			CompetitorID:     int(r.Equipeid),
			CardNumber:       int(r.Kaartnr),
			CardID:           int(r.Kaartid),
		}, true
	}
	if r.Success != nil && *r.Success {
		// The legacy shape has no separate ids: the EQ number identifies the
		// competitor and there is one card per competitor and rally code.
		return &redeem.Redemption{
			Code:             r.RallyCode,
			Name:             r.RallyCode,
			CompetitorNumber: int(r.EqNumber),
			CompetitorID:     int(r.EqNumber),
		}, true
	}
	return nil, false
}

// Redeem exchanges code for card data.
func (r *HTTPRedeemer) Redeem(ctx context.Context, code string) (*redeem.Redemption, error) {
	form := url.Values{"code": {code}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, failure.Wrap(failure.RedemptionFailed, err, "%v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("redemption transport error", zap.String("code", code), zap.Error(err))
		return nil, failure.Wrap(failure.RedemptionFailed, err, "%v", err)
	}
	defer resp.Body.Close()

	r.logger.Info("redemption response", zap.String("code", code), zap.Int("status", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, failure.New(failure.CodeAlreadyUsed, "The code has already been used.")
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, failure.New(failure.RedemptionFailed, "Unexpected error: HTTP %d", resp.StatusCode)
	}

	var body redemptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, failure.Wrap(failure.RedemptionFailed, err, "Failed to parse response: %v", err)
	}

	redemption, ok := body.toRedemption()
	if !ok {
		return nil, failure.New(failure.RedemptionFailed, "Invalid response from server.")
	}
	return redemption, nil
}

// Ensure HTTPRedeemer implements the interface
var _ secondary.Redeemer = (*HTTPRedeemer)(nil)
