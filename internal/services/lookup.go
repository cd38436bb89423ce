package services

import (
	"errors"
	"farm-delivery-service/internal/domain"
	"strings"
)

// ErrOrderNotFound is returned when a scanned or typed code matches no single order.
var ErrOrderNotFound = errors.New("order not found")

// MatchKind tells how a code was matched.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
)

// LookupResult carries diagnostics for a code lookup.
type LookupResult struct {
	Match           MatchKind `json:"match,omitempty"`
	ExactCandidates int       `json:"exactCandidates"`
	Candidates      int       `json:"substringCandidates"`
}

// FindByCode resolves a scanned or typed code against order number, id and display
// name. Exact matches win; otherwise a single substring match is accepted.
// More than one candidate is never guessed at and reports ErrOrderNotFound.
func FindByCode(orders []domain.ClassifiedOrder, code string) (domain.ClassifiedOrder, LookupResult, error) {
	var res LookupResult
	needle := strings.ToLower(strings.TrimSpace(code))
	if needle == "" {
		return domain.ClassifiedOrder{}, res, ErrOrderNotFound
	}

	exact := matchOrders(orders, func(field string) bool { return field == needle })
	res.ExactCandidates = len(exact)
	if len(exact) == 1 {
		res.Match = MatchExact
		return exact[0], res, nil
	}
	if len(exact) > 1 {
		return domain.ClassifiedOrder{}, res, ErrOrderNotFound
	}

	partial := matchOrders(orders, func(field string) bool { return strings.Contains(field, needle) })
	res.Candidates = len(partial)
	if len(partial) == 1 {
		res.Match = MatchSubstring
		return partial[0], res, nil
	}
	return domain.ClassifiedOrder{}, res, ErrOrderNotFound
}

func matchOrders(orders []domain.ClassifiedOrder, match func(field string) bool) []domain.ClassifiedOrder {
	var out []domain.ClassifiedOrder
	seen := make(map[string]struct{})
	for _, o := range orders {
		for _, f := range []string{o.OrderNumber, o.ID, o.Name} {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" || !match(f) {
				continue
			}
			if _, ok := seen[o.ID]; !ok {
				seen[o.ID] = struct{}{}
				out = append(out, o)
			}
			break
		}
	}
	return out
}
