package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bgatm/replay-engine/internal/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ReplayHandler struct {
	storage  storage.Storage
	registry *storage.Registry
	logger   *slog.Logger
}

func NewReplayHandler(s storage.Storage, registry *storage.Registry, logger *slog.Logger) *ReplayHandler {
	return &ReplayHandler{
		storage:  s,
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for reconstructed replays
// Routes:
// GET /v1/replays                              - List known games
// GET /v1/replays/{table_id}?perspective={id}  - Read one reconstructed replay
func (h *ReplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for replays endpoint", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Supported methods: GET",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/replays")
	tableID := strings.Trim(path, "/")

	if tableID == "" {
		h.handleList(w, r)
		return
	}
	h.handleRead(w, r, tableID)
}

func (h *ReplayHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list games", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to list games",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		h.logger.Error("Failed to encode games response", "error", err)
	}
}

func (h *ReplayHandler) handleRead(w http.ResponseWriter, r *http.Request, tableID string) {
	perspective := r.URL.Query().Get("perspective")
	if perspective == "" {
		h.logger.Warn("GET replay request without perspective", "table_id", tableID)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "perspective query parameter is required",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	g, err := h.storage.LoadReplay(r.Context(), tableID, perspective)
	if err != nil {
		h.logger.Error("Failed to load replay", "error", err, "table_id", tableID)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load replay",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if g == nil {
		h.logger.Warn("Replay not found", "table_id", tableID, "perspective", perspective)
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Replay not found",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(g); err != nil {
		h.logger.Error("Failed to encode replay response", "error", err)
	}
}
