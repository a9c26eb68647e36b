package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/planner"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires planner, catalog and storage dependencies into HTTP handlers.
type Handler struct {
	planner *planner.Service
	catalog catalog.Catalog
	storage storage.Storage

	clock func() time.Time

	mu                  sync.RWMutex
	capacitiesUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(plan *planner.Service, cat catalog.Catalog, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: plan,
		catalog: cat,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.capacitiesUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCapacities(w http.ResponseWriter, r *http.Request) {
	_ = r
	capacities, err := h.storage.GetCapacities()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := capacitiesResponse{
		Capacities: capacities,
		UpdatedAt:  h.currentCapacitiesUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutCapacities(w http.ResponseWriter, r *http.Request) {
	var req capacitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Capacities) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid capacities", "capacities must contain at least one category")
		return
	}

	if err := h.storage.SetCapacities(req.Capacities); err != nil {
		if errors.Is(err, storage.ErrInvalidCapacities) {
			writeError(w, http.StatusBadRequest, "Invalid capacities", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markCapacitiesUpdated()

	capacities, err := h.storage.GetCapacities()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := capacitiesResponse{
		Capacities: capacities,
		UpdatedAt:  h.currentCapacitiesUpdatedAt(),
		Message:    "Capacities updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{Category: strings.TrimSpace(r.URL.Query().Get("category"))}
	if raw := r.URL.Query().Get("pending"); raw != "" {
		pending, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "pending must be a boolean")
			return
		}
		filter.PendingOnly = pending
	}

	items, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item catalog.MediaItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	created, err := h.catalog.Add(r.Context(), item)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var item catalog.MediaItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	item.ID = r.PathValue("id")

	updated, err := h.catalog.Update(r.Context(), item)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkBackedUp(w http.ResponseWriter, r *http.Request) {
	var req backedUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "ids must contain at least one item id")
		return
	}

	if err := h.planner.Commit(r.Context(), req.IDs); err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backedUpResponse{
		Updated: len(req.IDs),
		Message: "Items marked as backed up",
	})
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	start := time.Now()
	plan, err := h.planner.Plan(r.Context(), req.Categories)
	elapsed := time.Since(start)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{Plan: plan, CalculationTimeMs: elapsed.Milliseconds()})
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Capacities) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "capacities must contain at least one category")
		return
	}

	items := make([]optimizer.CandidateItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = optimizer.CandidateItem{
			ID:       item.ID,
			Size:     item.Size,
			Category: optimizer.Category(item.Category),
		}
	}

	start := time.Now()
	plan, err := h.planner.Optimize(items, req.Capacities)
	elapsed := time.Since(start)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{Plan: plan, CalculationTimeMs: elapsed.Milliseconds()})
}

func (h *Handler) currentCapacitiesUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.capacitiesUpdatedAt
}

func (h *Handler) markCapacitiesUpdated() {
	h.mu.Lock()
	h.capacitiesUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type capacitiesRequest struct {
	Capacities map[string]float64 `json:"capacities"`
}

type capacitiesResponse struct {
	Capacities map[string]float64 `json:"capacities"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Message    string             `json:"message,omitempty"`
}

type itemsResponse struct {
	Items []catalog.MediaItem `json:"items"`
	Count int                 `json:"count"`
}

type backedUpRequest struct {
	IDs []string `json:"ids"`
}

type backedUpResponse struct {
	Updated int    `json:"updated"`
	Message string `json:"message"`
}

type planRequest struct {
	Categories []string `json:"categories"`
}

type optimizeItem struct {
	ID       string  `json:"id"`
	Size     float64 `json:"size"`
	Category string  `json:"category"`
}

type optimizeRequest struct {
	Items      []optimizeItem     `json:"items"`
	Capacities map[string]float64 `json:"capacities"`
}

type planResponse struct {
	planner.Plan
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, catalog.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "Invalid media item", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeSolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, "Unknown category", err.Error(), "Configure a capacity for the category first")
	case errors.Is(err, optimizer.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, optimizer.ErrResourceLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, "Problem too large", err.Error(),
			"Split the catalog into smaller batches or lower the quantization scale")
	default:
		writeInternalError(w, err)
	}
}
