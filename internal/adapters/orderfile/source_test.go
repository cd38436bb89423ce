package orderfile

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersDoc = `{"orders": [
	{"id": "1", "orderNumber": "1001", "fulfillmentStatus": "", "customer": {"name": "A"}},
	{"id": "2", "orderNumber": "1002", "fulfillmentStatus": "partial", "customer": {"name": "B"}, "createdAt": "2026-03-01T00:00:00Z"},
	{"id": "3", "orderNumber": "1003", "fulfillmentStatus": "fulfilled", "customer": {"name": "C"}},
	{"id": "4", "orderNumber": "1004", "fulfillmentStatus": "unfulfilled", "customer": {"name": "D"}, "createdAt": "2026-03-09T00:00:00Z"}
]}`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func ids(orders []domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestSourceFiltersStatusAndWindow(t *testing.T) {
	s := NewSource(writeFile(t, ordersDoc))
	s.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	got, err := s.ListOrders(context.Background(), ports.OrderQuery{
		Statuses:     []string{domain.FulfillmentUnfulfilled, domain.FulfillmentPartial},
		LookbackDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4"}, ids(got))

	got, err = s.ListOrders(context.Background(), ports.OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestLoadAcceptsBareArray(t *testing.T) {
	got, err := Load(writeFile(t, `[{"id": "9", "orderNumber": "1009", "customer": {"name": "Z"}}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, ids(got))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "  "))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "{not json"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSourceWithoutPath(t *testing.T) {
	_, err := NewSource("").ListOrders(context.Background(), ports.OrderQuery{})
	assert.ErrorIs(t, err, ports.ErrMissingCredentials)
}
