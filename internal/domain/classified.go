package domain

// DeliveryType is the outcome of classification.
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

// Display labels used by the storefront and the dashboard.
const (
	MethodPickup       = "Pickup"
	MethodHomeDelivery = "Home Delivery"
)

// Section is the physical truck compartment an order is loaded into.
type Section string

const (
	SectionFridge  Section = "fridge"
	SectionFreezer Section = "freezer"
)

// Valid reports whether s is a known section.
func (s Section) Valid() bool { return s == SectionFridge || s == SectionFreezer }

// SectionFor is the fixed business mapping: pickups ride in the fridge, deliveries in the freezer.
func SectionFor(t DeliveryType) Section {
	if t == DeliveryTypeDelivery {
		return SectionFreezer
	}
	return SectionFridge
}

// MethodFor returns the display label for a delivery type.
func MethodFor(t DeliveryType) string {
	if t == DeliveryTypeDelivery {
		return MethodHomeDelivery
	}
	return MethodPickup
}

// GeocodeStatus describes the address resolution outcome for an order.
type GeocodeStatus string

const (
	GeocodeNotRequired GeocodeStatus = "not_required"
	GeocodeResolved    GeocodeStatus = "resolved"
	GeocodeFailed      GeocodeStatus = "failed"
)

// ClassifiedOrder is an Order with its fixed classification attached.
// DeliveryType and Section never change once built.
type ClassifiedOrder struct {
	Order
	DeliveryType   DeliveryType `json:"deliveryType"`
	Section        Section      `json:"section"`
	DeliveryMethod string       `json:"deliveryMethod"`
	MatchedRule    string       `json:"matchedRule"`

	Coordinates   *Coordinates  `json:"coordinates,omitempty"`
	GeocodeStatus GeocodeStatus `json:"geocodeStatus"`
	GeocodeError  string        `json:"geocodeError,omitempty"`
}

// NewClassifiedOrder builds the typed record for a classification result.
func NewClassifiedOrder(o Order, t DeliveryType, rule string) ClassifiedOrder {
	c := ClassifiedOrder{
		Order:          o,
		DeliveryType:   t,
		Section:        SectionFor(t),
		DeliveryMethod: MethodFor(t),
		MatchedRule:    rule,
		GeocodeStatus:  GeocodeNotRequired,
	}
	// the raw method is superseded by the normalized label
	c.Order.DeliveryMethod = c.DeliveryMethod
	return c
}

// Routable reports whether the order can be submitted to the route solver.
func (c ClassifiedOrder) Routable() bool {
	return c.DeliveryType == DeliveryTypeDelivery && c.Coordinates != nil
}
