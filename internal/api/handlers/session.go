package handlers

import (
	"bytes"
	"context"
	"farm-delivery-service/internal/api/dto"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/apperr"
	"farm-delivery-service/internal/services"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// SessionHandler exposes the truck-loading session over HTTP.
type SessionHandler struct {
	Session *services.Controller
	Logger  *slog.Logger
}

// ListOrders fetches, classifies and geocodes orders for the lookback window in ?days.
func (h *SessionHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, h.Logger, apperr.Validation("days must be a positive integer"))
			return
		}
		days = n
	}

	res, err := h.Session.LoadOrders(r.Context(), days)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, res)
}

func (h *SessionHandler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	route, err := h.Session.Optimize(r.Context(), req.OrderIDs)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, route)
}

// ResetRoute drops the route and packing order; loading progress is kept.
func (h *SessionHandler) ResetRoute(w http.ResponseWriter, r *http.Request) {
	h.Session.ResetRoute()
	h.writeView(w, r)
}

func (h *SessionHandler) TrackLoading(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackLoadingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	res, err := h.Session.Track(r.Context(), strings.TrimSpace(req.OrderID), domain.Section(req.Section), req.Action)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, res)
}

func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req dto.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	res, err := h.Session.Scan(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, res)
}

func (h *SessionHandler) LoadingStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Session.Status(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, st)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r)
}

// ResetSession starts a new session; orders, route and loading progress are cleared.
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.ResetSession(r.Context()); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.writeView(w, r)
}

func (h *SessionHandler) ExportLoadingList(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "loading-list", h.Session.ExportLoadingList)
}

func (h *SessionHandler) ExportRouteSheet(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "route-sheet", h.Session.ExportRouteSheet)
}

func (h *SessionHandler) writeView(w http.ResponseWriter, r *http.Request) {
	view, err := h.Session.View(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeOK(w, r, view)
}

// writeCSV renders into a buffer first so a failure still answers with JSON.
func (h *SessionHandler) writeCSV(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	export func(ctx context.Context, w io.Writer) error,
) {
	var buf bytes.Buffer
	if err := export(r.Context(), &buf); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	view, err := h.Session.View(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, name, view.Day))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
