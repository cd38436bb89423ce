package services

import (
	"context"
	"encoding/csv"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/apperr"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	loadingListHeader = []string{"Order Number", "Customer Name", "Section", "Items", "Status"}
	routeSheetHeader  = []string{"Stop Number", "Order Number", "Customer Name", "Address", "Items", "Phone"}
)

const (
	statusLoaded    = "Loaded"
	statusNotLoaded = "Not Loaded"
)

// ExportLoadingList writes one row per session order with its loaded status.
func (c *Controller) ExportLoadingList(ctx context.Context, w io.Writer) error {
	view, err := c.View(ctx)
	if err != nil {
		return err
	}
	if len(view.Orders) == 0 {
		return apperr.Validation("no orders loaded; nothing to export")
	}

	rows := make([][]string, 0, len(view.Orders))
	for _, o := range view.Orders {
		status := statusNotLoaded
		if o.Loaded {
			status = statusLoaded
		}
		rows = append(rows, []string{
			o.OrderNumber,
			o.Customer.Name,
			sectionLabel(o.Section),
			o.ItemSummary(),
			status,
		})
	}
	return writeCSV(w, loadingListHeader, rows)
}

// ExportRouteSheet writes the optimized route in delivery order.
func (c *Controller) ExportRouteSheet(ctx context.Context, w io.Writer) error {
	view, err := c.View(ctx)
	if err != nil {
		return err
	}
	if view.Route == nil || len(view.Route.Stops) == 0 {
		return apperr.Validation("no optimized route; optimize before exporting the route sheet")
	}

	rows := make([][]string, 0, len(view.Route.Stops))
	for _, s := range view.Route.Stops {
		o := s.Order
		addr := ""
		if o.Customer.ShippingAddress != nil {
			addr = o.Customer.ShippingAddress.OneLine()
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Sequence),
			o.OrderNumber,
			o.Customer.Name,
			addr,
			o.ItemSummary(),
			o.Phone(),
		})
	}
	return writeCSV(w, routeSheetHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		for i := range r {
			r[i] = csvField(r[i])
		}
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvField keeps free text from breaking naive comma splitting downstream:
// commas become semicolons and line breaks become spaces.
func csvField(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

func sectionLabel(s domain.Section) string {
	switch s {
	case domain.SectionFridge:
		return "Fridge"
	case domain.SectionFreezer:
		return "Freezer"
	}
	return string(s)
}
