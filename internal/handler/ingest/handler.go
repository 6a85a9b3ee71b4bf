package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/profscope/backend/internal/logging"
	ingestsvc "github.com/zhouzirui/profscope/backend/internal/service/ingest"
	"github.com/zhouzirui/profscope/backend/pkg/utils"
)

// Pipeline ingests a single professor page.
type Pipeline interface {
	Ingest(ctx context.Context, url string, trail *ingestsvc.Trail) (ingestsvc.Result, error)
}

// Handler serves /upload-professor.
type Handler struct {
	pipeline Pipeline
}

func New(pipeline Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload-professor", h.handleUpload)
	r.Options("/upload-professor", func(w http.ResponseWriter, _ *http.Request) { utils.RespondEmpty(w) })
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trail := ingestsvc.NewTrail(logging.Component("ingest").With().Str("url", payload.URL).Logger())
	result, err := h.pipeline.Ingest(r.Context(), payload.URL, trail)
	if err != nil {
		if errors.Is(err, ingestsvc.ErrURLRequired) {
			utils.RespondErrorWithLogs(w, http.StatusBadRequest, "No URL provided", trail.Entries())
			return
		}
		trail.Fail("request", err, "Error processing URL")
		utils.RespondErrorWithLogs(w, http.StatusInternalServerError, "Internal Server Error", trail.Entries())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
