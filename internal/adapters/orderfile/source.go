// Package orderfile serves orders from a JSON file for local runs and demos.
package orderfile

import (
	"context"
	"encoding/json"
	"errors"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"fmt"
	"os"
	"strings"
	"time"
)

// Source implements ports.OrderSource over a JSON document holding either an
// array of orders or an object with an "orders" array. The file is re-read on
// every call so edits show up on the next fetch.
type Source struct {
	path string
	now  func() time.Time
}

func NewSource(path string) *Source {
	return &Source{path: path, now: time.Now}
}

func (s *Source) ListOrders(ctx context.Context, q ports.OrderQuery) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.path) == "" {
		return nil, fmt.Errorf("list orders: %w: no orders file configured", ports.ErrMissingCredentials)
	}

	orders, err := Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	var since time.Time
	if q.LookbackDays > 0 {
		since = s.now().AddDate(0, 0, -q.LookbackDays)
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !matchesStatus(o.FulfillmentStatus, q.Statuses) {
			continue
		}
		// Orders without a creation time are always in the window.
		if !since.IsZero() && !o.CreatedAt.IsZero() && o.CreatedAt.Before(since) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// Load reads and decodes an orders file.
func Load(path string) ([]domain.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read orders file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("orders file is empty")
	}

	if strings.HasPrefix(trimmed, "[") {
		var orders []domain.Order
		if err := json.Unmarshal(data, &orders); err != nil {
			return nil, fmt.Errorf("decode orders file: %w", err)
		}
		return orders, nil
	}

	var doc struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode orders file: %w", err)
	}
	return doc.Orders, nil
}

// matchesStatus treats an empty fulfillment status as unfulfilled, the way the
// storefront reports orders with nothing shipped yet.
func matchesStatus(status string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		status = domain.FulfillmentUnfulfilled
	}
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(w), status) {
			return true
		}
	}
	return false
}
