package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/apperr"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLoadingListKeepsColumnCount(t *testing.T) {
	ctx := context.Background()
	orders := scenarioOrders()
	orders[5].Customer.Name = "Smith, John"
	orders[5].LineItems = []domain.LineItem{{Title: "Eggs", Quantity: 2}, {Title: "Milk", Quantity: 1}}

	c := newTestController(&fakeSource{orders: orders}, scenarioGeocoder(), &fakeSolver{})
	_, err := c.LoadOrders(ctx, 7)
	require.NoError(t, err)
	_, err = c.Scan(ctx, "1007")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportLoadingList(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Order Number,Customer Name,Section,Items,Status", lines[0])
	for _, l := range lines {
		assert.Len(t, strings.Split(l, ","), 5, "naive split must see five columns: %q", l)
	}
	assert.Equal(t, "1007,Smith; John,Fridge,2x Eggs; 1x Milk,Loaded", lines[6])
	assert.Equal(t, "1001,Customer 1001,Freezer,2x Eggs,Not Loaded", lines[1])
}

func TestExportRouteSheetFollowsDeliveryOrder(t *testing.T) {
	ctx := context.Background()
	solver := &fakeSolver{visit: []int64{1005, 1001, 1003}}
	c := newTestController(&fakeSource{orders: scenarioOrders()}, scenarioGeocoder(), solver)
	_, err := c.LoadOrders(ctx, 7)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = c.ExportRouteSheet(ctx, &buf)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "no route yet")

	_, err = c.Optimize(ctx, nil)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, c.ExportRouteSheet(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Stop Number", "Order Number", "Customer Name", "Address", "Items", "Phone"}, rows[0])
	assert.Equal(t, []string{"1", "1005", "Customer 1005", "5 E St; Newcastle; NSW", "2x Eggs", "0400 000 1005"}, rows[1])
	assert.Equal(t, "1001", rows[2][1])
	assert.Equal(t, "1003", rows[3][1])
}

func TestExportLoadingListNeedsOrders(t *testing.T) {
	c := newTestController(&fakeSource{}, scenarioGeocoder(), &fakeSolver{})
	err := c.ExportLoadingList(context.Background(), &bytes.Buffer{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCSVField(t *testing.T) {
	assert.Equal(t, "a; b c", csvField(" a, b\nc "))
}
