package shopify

import (
	"farm-delivery-service/internal/domain"
	"strconv"
	"strings"
	"time"
)

type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

type shopifyOrder struct {
	ID                int64                 `json:"id"`
	OrderNumber       int64                 `json:"order_number"`
	Name              string                `json:"name"`
	Phone             string                `json:"phone"`
	FulfillmentStatus *string               `json:"fulfillment_status"`
	CreatedAt         time.Time             `json:"created_at"`
	Tags              string                `json:"tags"`
	Customer          *shopifyCustomer      `json:"customer"`
	ShippingAddress   *shopifyAddress       `json:"shipping_address"`
	BillingAddress    *shopifyAddress       `json:"billing_address"`
	ShippingLines     []shopifyShippingLine `json:"shipping_lines"`
	LineItems         []shopifyLineItem     `json:"line_items"`
	NoteAttributes    []shopifyAttribute    `json:"note_attributes"`
}

type shopifyCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type shopifyAddress struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type shopifyShippingLine struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

type shopifyLineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type shopifyAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// deliveryMethodAttributes are checkout note attributes that carry a pre-set method.
var deliveryMethodAttributes = []string{"delivery method", "delivery_method", "deliverymethod"}

func mapOrder(so shopifyOrder) domain.Order {
	o := domain.Order{
		ID:          strconv.FormatInt(so.ID, 10),
		OrderNumber: strconv.FormatInt(so.OrderNumber, 10),
		Name:        so.Name,
		Tags:        splitTags(so.Tags),
		CreatedAt:   so.CreatedAt,
	}
	if so.FulfillmentStatus != nil {
		o.FulfillmentStatus = *so.FulfillmentStatus
	}

	o.Customer.Phone = strings.TrimSpace(so.Phone)
	if so.Customer != nil {
		o.Customer.Name = strings.TrimSpace(so.Customer.FirstName + " " + so.Customer.LastName)
		if o.Customer.Phone == "" {
			o.Customer.Phone = strings.TrimSpace(so.Customer.Phone)
		}
	}
	o.Customer.ShippingAddress = mapAddress(so.ShippingAddress)
	o.Customer.BillingAddress = mapAddress(so.BillingAddress)
	if o.Customer.Name == "" && o.Customer.ShippingAddress != nil {
		o.Customer.Name = o.Customer.ShippingAddress.Name
	}

	for _, sl := range so.ShippingLines {
		o.ShippingLines = append(o.ShippingLines, domain.ShippingLine{Title: sl.Title, Code: sl.Code})
	}
	for _, li := range so.LineItems {
		o.LineItems = append(o.LineItems, domain.LineItem{Title: li.Title, Quantity: li.Quantity})
	}
	for _, a := range so.NoteAttributes {
		for _, name := range deliveryMethodAttributes {
			if strings.EqualFold(strings.TrimSpace(a.Name), name) {
				o.DeliveryMethod = strings.TrimSpace(a.Value)
			}
		}
	}
	return o
}

func mapAddress(a *shopifyAddress) *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		Name:     a.Name,
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		Province: a.Province,
		Zip:      a.Zip,
		Country:  a.Country,
		Phone:    a.Phone,
	}
}

// splitTags parses Shopify's comma-separated tag string.
func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
