package services

import (
	"farm-delivery-service/internal/domain"
	"log/slog"
	"strings"
)

// Keyword groups, checked pickup before delivery.
var (
	pickupKeywords   = []string{"pickup", "collection", "market"}
	deliveryKeywords = []string{"delivery", "shipping", "post", "courier"}

	shippingLinePickupKeywords   = []string{"pickup", "collection", "collect", "market", "store pickup", "local pickup"}
	shippingLineDeliveryKeywords = []string{"delivery", "shipping", "post", "courier", "express", "standard", "home delivery"}
)

// Rule is one named step of the classification cascade.
// Apply reports ok=false when the rule is inconclusive.
type Rule struct {
	Name  string
	Apply func(o domain.Order) (t domain.DeliveryType, ok bool)
}

// FallbackRule is reported when no rule matched.
const FallbackRule = "fallback_pickup"

// DefaultRules is the classification cascade in decreasing confidence.
var DefaultRules = []Rule{
	{Name: "explicit_method", Apply: explicitMethod},
	{Name: "method_keywords", Apply: methodKeywords},
	{Name: "tag_keywords", Apply: tagKeywords},
	{Name: "shipping_line_keywords", Apply: shippingLineKeywords},
	{Name: "address_heuristic", Apply: addressHeuristic},
}

// Classifier decides pickup vs home delivery with a first-match-wins rule list.
// It is deterministic and makes no network calls.
type Classifier struct {
	rules  []Rule
	logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{rules: DefaultRules, logger: logger}
}

// Classify returns the delivery type and the name of the rule that decided it.
func (c *Classifier) Classify(o domain.Order) (domain.DeliveryType, string) {
	for _, r := range c.rules {
		if t, ok := r.Apply(o); ok {
			c.debug(o, r.Name, t)
			return t, r.Name
		}
	}
	c.debug(o, FallbackRule, domain.DeliveryTypePickup)
	return domain.DeliveryTypePickup, FallbackRule
}

// ClassifyOrder builds the typed classified record for an order.
func (c *Classifier) ClassifyOrder(o domain.Order) domain.ClassifiedOrder {
	t, rule := c.Classify(o)
	return domain.NewClassifiedOrder(o, t, rule)
}

func (c *Classifier) debug(o domain.Order, rule string, t domain.DeliveryType) {
	if c.logger != nil {
		c.logger.Debug("order classified", "order_id", o.ID, "order_number", o.OrderNumber, "rule", rule, "delivery_type", t)
	}
}

func explicitMethod(o domain.Order) (domain.DeliveryType, bool) {
	switch strings.TrimSpace(o.DeliveryMethod) {
	case domain.MethodPickup:
		return domain.DeliveryTypePickup, true
	case domain.MethodHomeDelivery:
		return domain.DeliveryTypeDelivery, true
	}
	return "", false
}

func methodKeywords(o domain.Order) (domain.DeliveryType, bool) {
	return matchKeywords(strings.ToLower(o.DeliveryMethod), pickupKeywords, deliveryKeywords)
}

func tagKeywords(o domain.Order) (domain.DeliveryType, bool) {
	if len(o.Tags) == 0 {
		return "", false
	}
	lowered := make([]string, 0, len(o.Tags))
	for _, tag := range o.Tags {
		lowered = append(lowered, strings.ToLower(tag))
	}
	// the whole tag set is checked for pickup before any tag is checked for delivery
	for _, group := range []struct {
		keywords []string
		result   domain.DeliveryType
	}{
		{pickupKeywords, domain.DeliveryTypePickup},
		{deliveryKeywords, domain.DeliveryTypeDelivery},
	} {
		for _, tag := range lowered {
			if containsAny(tag, group.keywords) {
				return group.result, true
			}
		}
	}
	return "", false
}

func shippingLineKeywords(o domain.Order) (domain.DeliveryType, bool) {
	if len(o.ShippingLines) == 0 {
		return "", false
	}
	first := o.ShippingLines[0]
	text := strings.ToLower(first.Title + " " + first.Code)
	return matchKeywords(text, shippingLinePickupKeywords, shippingLineDeliveryKeywords)
}

func addressHeuristic(o domain.Order) (domain.DeliveryType, bool) {
	ship := o.Customer.ShippingAddress
	bill := o.Customer.BillingAddress
	hasShip, hasBill := ship.Present(), bill.Present()

	switch {
	case hasShip && hasBill && !ship.SameStreetAndCity(bill):
		return domain.DeliveryTypeDelivery, true
	case hasShip && !hasBill:
		return domain.DeliveryTypeDelivery, true
	case hasBill && !hasShip:
		return domain.DeliveryTypePickup, true
	}
	// identical addresses on both sides are left to the fallback
	return "", false
}

func matchKeywords(text string, pickup, delivery []string) (domain.DeliveryType, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if containsAny(text, pickup) {
		return domain.DeliveryTypePickup, true
	}
	if containsAny(text, delivery) {
		return domain.DeliveryTypeDelivery, true
	}
	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
