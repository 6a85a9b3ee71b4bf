package query

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/profscope/backend/internal/model/professor"
	querysvc "github.com/zhouzirui/profscope/backend/internal/service/query"
	"github.com/zhouzirui/profscope/backend/pkg/utils"
)

// Service is the conversational backend behind /query.
type Service interface {
	Ask(ctx context.Context, sessionID, question string) (querysvc.Answer, error)
	Clear(ctx context.Context, sessionID string) error
}

// Handler 问答接口的HTTP处理器
type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /query 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/query", h.handleAsk)
	r.Delete("/query", h.handleClear)
	r.Options("/query", func(w http.ResponseWriter, _ *http.Request) { utils.RespondEmpty(w) })
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type narrativeResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type ratingsResponse struct {
	Ratings   []professor.AnalyzedComment `json:"ratings"`
	SessionID string                      `json:"sessionId"`
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload askRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.svc.Ask(r.Context(), payload.SessionID, payload.Question)
	if err != nil {
		if errors.Is(err, querysvc.ErrQuestionRequired) {
			utils.RespondError(w, http.StatusBadRequest, "No question provided")
			return
		}
		log.Error().Err(err).Str("session", payload.SessionID).Msg("query failed")
		utils.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if answer.HasRatings() {
		utils.RespondJSON(w, http.StatusOK, ratingsResponse{Ratings: answer.Ratings, SessionID: answer.SessionID})
		return
	}
	utils.RespondJSON(w, http.StatusOK, narrativeResponse{Response: answer.Response, SessionID: answer.SessionID})
}

// handleClear 清空会话历史，未知会话同样返回成功
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Clear(r.Context(), payload.SessionID); err != nil {
		log.Error().Err(err).Str("session", payload.SessionID).Msg("clear session failed")
		utils.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
