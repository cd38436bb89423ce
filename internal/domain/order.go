package domain

import (
	"fmt"
	"strings"
	"time"
)

// Address is a raw postal address as supplied by the storefront.
type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Present reports whether the address carries enough to be treated as supplied.
func (a *Address) Present() bool {
	if a == nil {
		return false
	}
	return strings.TrimSpace(a.Address1) != "" || strings.TrimSpace(a.City) != ""
}

// SameStreetAndCity compares the street line and city, ignoring case and spacing.
func (a *Address) SameStreetAndCity(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return foldEqual(a.Address1, other.Address1) && foldEqual(a.City, other.City)
}

// OneLine renders the address as a single display line.
func (a *Address) OneLine() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Address1, a.Address2, a.City, a.Province, a.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

type Customer struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone,omitempty"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
}

type ShippingLine struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// Fulfillment statuses eligible for the truck-loading workflow.
const (
	FulfillmentUnfulfilled = "unfulfilled"
	FulfillmentPartial     = "partial"
)

// Order is a storefront order as read from the order source. It is read-only input.
type Order struct {
	ID                string         `json:"id"`
	OrderNumber       string         `json:"orderNumber"`
	Name              string         `json:"name,omitempty"`
	Customer          Customer       `json:"customer"`
	Tags              []string       `json:"tags,omitempty"`
	ShippingLines     []ShippingLine `json:"shippingLines,omitempty"`
	LineItems         []LineItem     `json:"lineItems,omitempty"`
	FulfillmentStatus string         `json:"fulfillmentStatus"`
	CreatedAt         time.Time      `json:"createdAt,omitzero"`
	// DeliveryMethod is an optional pre-set method label (e.g. from an order attribute).
	DeliveryMethod string `json:"deliveryMethod,omitempty"`
}

// Eligible reports whether the order can enter the loading workflow.
// An empty status is how the storefront reports "nothing fulfilled yet".
func (o Order) Eligible() bool {
	switch strings.ToLower(strings.TrimSpace(o.FulfillmentStatus)) {
	case "", FulfillmentUnfulfilled, FulfillmentPartial:
		return true
	}
	return false
}

// ItemSummary renders line items as "2x Eggs, 1x Milk".
func (o Order) ItemSummary() string {
	parts := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		parts = append(parts, fmt.Sprintf("%dx %s", li.Quantity, strings.TrimSpace(li.Title)))
	}
	return strings.Join(parts, ", ")
}

// Phone prefers the customer phone and falls back to the shipping then billing address phone.
func (o Order) Phone() string {
	if p := strings.TrimSpace(o.Customer.Phone); p != "" {
		return p
	}
	if a := o.Customer.ShippingAddress; a != nil && strings.TrimSpace(a.Phone) != "" {
		return strings.TrimSpace(a.Phone)
	}
	if a := o.Customer.BillingAddress; a != nil {
		return strings.TrimSpace(a.Phone)
	}
	return ""
}
