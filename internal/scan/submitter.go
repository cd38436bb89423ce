package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when the server matched no single order for a code.
var ErrNotFound = errors.New("no single order matches code")

// Outcome is the server's answer to one submitted code.
type Outcome struct {
	OrderID       string
	OrderNumber   string
	Section       string
	AlreadyLoaded bool
}

// Submitter posts completed codes to the loading server.
type Submitter struct {
	client  *http.Client
	baseURL string
}

func NewSubmitter(baseURL string, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Submitter{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type scanResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Order struct {
			ID          string `json:"id"`
			OrderNumber string `json:"orderNumber"`
			Section     string `json:"section"`
		} `json:"order"`
		AlreadyLoaded bool `json:"alreadyLoaded"`
	} `json:"data"`
}

// Submit marks the order matching code as loaded.
func (s *Submitter) Submit(ctx context.Context, code string) (Outcome, error) {
	payload, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal scan: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/scan", bytes.NewReader(payload))
	if err != nil {
		return Outcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit scan: %w", err)
	}
	defer resp.Body.Close()

	var decoded scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Outcome{}, fmt.Errorf("decode scan response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, decoded.Error)
	case !decoded.Success || resp.StatusCode != http.StatusOK:
		return Outcome{}, fmt.Errorf("scan rejected (status %d): %s", resp.StatusCode, decoded.Error)
	}

	return Outcome{
		OrderID:       decoded.Data.Order.ID,
		OrderNumber:   decoded.Data.Order.OrderNumber,
		Section:       decoded.Data.Order.Section,
		AlreadyLoaded: decoded.Data.AlreadyLoaded,
	}, nil
}
