package shopify

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageOne = `{"orders":[{
	"id": 5001,
	"order_number": 1001,
	"name": "#1001",
	"fulfillment_status": null,
	"tags": "Delivery, vip",
	"customer": {"first_name": "Smith,", "last_name": "John", "phone": "0400 111 222"},
	"shipping_address": {"address1": "1 Farm Rd", "city": "Newcastle", "province": "NSW", "zip": "2300", "country": "Australia"},
	"shipping_lines": [{"title": "Local Delivery", "code": "local"}],
	"line_items": [{"title": "Eggs", "quantity": 2}],
	"note_attributes": [{"name": "Delivery Method", "value": "Home Delivery"}]
}]}`

const pageTwo = `{"orders":[{
	"id": 5002,
	"order_number": 1002,
	"name": "#1002",
	"fulfillment_status": "partial",
	"tags": "",
	"line_items": [{"title": "Milk", "quantity": 1}]
}]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Config{Shop: srv.URL, AccessToken: "token"}, nil, nil)
	c.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestListOrdersFollowsLinkHeaderAndMaps(t *testing.T) {
	var srvURL string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, "/admin/api/2024-01/orders.json", r.URL.Path)

		if r.URL.Query().Get("page_info") == "" {
			assert.Equal(t, "unfulfilled", r.URL.Query().Get("fulfillment_status"))
			assert.Equal(t, "2026-03-03T12:00:00Z", r.URL.Query().Get("created_at_min"))
			assert.Equal(t, "open", r.URL.Query().Get("status"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/orders.json?page_info=abc&limit=250>; rel="next"`, srvURL))
			_, _ = w.Write([]byte(pageOne))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/orders.json?page_info=zzz>; rel="previous"`, srvURL))
		_, _ = w.Write([]byte(pageTwo))
	})
	srvURL = c.baseURL

	orders, err := c.ListOrders(context.Background(), ports.OrderQuery{Statuses: []string{"unfulfilled"}, LookbackDays: 7})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	o := orders[0]
	assert.Equal(t, "5001", o.ID)
	assert.Equal(t, "1001", o.OrderNumber)
	assert.Equal(t, "#1001", o.Name)
	assert.Equal(t, "", o.FulfillmentStatus)
	assert.True(t, o.Eligible())
	assert.Equal(t, []string{"Delivery", "vip"}, o.Tags)
	assert.Equal(t, "Smith, John", o.Customer.Name)
	assert.Equal(t, "0400 111 222", o.Phone())
	require.NotNil(t, o.Customer.ShippingAddress)
	assert.Equal(t, "1 Farm Rd", o.Customer.ShippingAddress.Address1)
	assert.Nil(t, o.Customer.BillingAddress)
	assert.Equal(t, []domain.ShippingLine{{Title: "Local Delivery", Code: "local"}}, o.ShippingLines)
	assert.Equal(t, "2x Eggs", o.ItemSummary())
	assert.Equal(t, domain.MethodHomeDelivery, o.DeliveryMethod)

	assert.Equal(t, "partial", orders[1].FulfillmentStatus)
	assert.Empty(t, orders[1].Tags)
}

func TestListOrdersDeduplicatesAcrossStatuses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageTwo))
	})

	orders, err := c.ListOrders(context.Background(), ports.OrderQuery{Statuses: []string{"unfulfilled", "partial"}})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestListOrdersMissingCredentials(t *testing.T) {
	c := NewClient(Config{Shop: "example.myshopify.com"}, nil, nil)
	_, err := c.ListOrders(context.Background(), ports.OrderQuery{})
	assert.ErrorIs(t, err, ports.ErrMissingCredentials)
	assert.Equal(t, "https://example.myshopify.com", c.baseURL)
}

func TestListOrdersStatusError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.ListOrders(context.Background(), ports.OrderQuery{})
	require.Error(t, err)
	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"next only", `<https://s/orders.json?page_info=a>; rel="next"`, "https://s/orders.json?page_info=a"},
		{"previous and next", `<https://s/p>; rel="previous", <https://s/n>; rel="next"`, "https://s/n"},
		{"previous only", `<https://s/p>; rel="previous"`, ""},
		{"malformed", `https://s/n; rel="next"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextLink(tt.header))
		})
	}
}
