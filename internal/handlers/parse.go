package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bgatm/replay-engine/internal/queue"
	"github.com/bgatm/replay-engine/internal/storage"
	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

// ParseRequest defines the request body for queueing a parse
type ParseRequest struct {
	TableID     string `json:"table_id"`
	Perspective string `json:"perspective"`
}

// ParseResponse is returned when a parse job is accepted
type ParseResponse struct {
	JobID   string `json:"job_id"`
	TableID string `json:"table_id"`
	Queued  int    `json:"queued"`
}

type ParseHandler struct {
	storage storage.Storage
	queue   *queue.JobQueue
	logger  *slog.Logger
}

func NewParseHandler(s storage.Storage, q *queue.JobQueue, logger *slog.Logger) *ParseHandler {
	return &ParseHandler{
		storage: s,
		queue:   q,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests to queue replay reconstruction
// Routes:
// POST /v1/parse - Queue a parse job for a stored raw document
func (h *ParseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for parse endpoint", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Supported methods: POST",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if req.TableID == "" || req.Perspective == "" {
		h.logger.Warn("Missing required fields in parse request")
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "table_id and perspective fields are required",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	// A job for a document nobody stored would only fail in the worker,
	// so reject it here. Existence only; raw documents can run to several
	// megabytes and the handler never needs their contents.
	exists, err := h.storage.HasRawDocument(r.Context(), req.TableID, req.Perspective)
	if err != nil {
		h.logger.Error("Failed to check raw document", "error", err, "table_id", req.TableID)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to check raw document",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	if !exists {
		h.logger.Warn("No raw document for parse request", "table_id", req.TableID, "perspective", req.Perspective)
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "No raw document stored for this table and perspective",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	job := pkgqueue.NewParseJob(req.TableID, req.Perspective)
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("Failed to enqueue parse job", "error", err, "table_id", req.TableID)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to enqueue parse job",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	depth, err := h.queue.Depth(r.Context())
	if err != nil {
		h.logger.Warn("Failed to read queue depth", "error", err)
		depth = 0
	}

	h.logger.Info("Parse job queued", "job_id", job.JobID, "table_id", req.TableID)
	w.WriteHeader(http.StatusAccepted)
	response := ParseResponse{
		JobID:   job.JobID,
		TableID: req.TableID,
		Queued:  depth,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode parse response", "error", err)
	}
}
