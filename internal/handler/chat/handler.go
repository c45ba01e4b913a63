package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
	chatService "github.com/zhouzirui/finbot/backend/internal/service/chat"
	"github.com/zhouzirui/finbot/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由，/chat 挂在需要鉴权的路由上
func (h *Handler) RegisterRoutes(public, protected chi.Router) {
	protected.Post("/chat", h.handleChat)
	public.Post("/cleanup_session", h.handleCleanupSession)
}

type chatResponse struct {
	Response  string           `json:"response"`
	StockData *market.Snapshot `json:"stock_data"`
}

// handleChat 基于会话中的行情快照回答用户问题
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string   `json:"session_id"`
		Messages  []string `json:"messages"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload.SessionID = strings.TrimSpace(payload.SessionID)
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	if len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Messages are required")
		return
	}

	// 只使用最后一条消息，历史由会话维护
	message := payload.Messages[len(payload.Messages)-1]

	reply, err := h.chatSvc.Ask(r.Context(), payload.SessionID, message)
	switch {
	case err == nil:
	case errors.Is(err, chatService.ErrInvalidArgument):
		utils.RespondError(w, http.StatusBadRequest, "Message must not be empty")
		return
	case errors.Is(err, chatService.ErrNoSnapshot):
		utils.RespondError(w, http.StatusBadRequest, "No ticker data found for this session. Please call /get_ticker_data first")
		return
	default:
		utils.RespondError(w, http.StatusInternalServerError, "Error processing chat request")
		return
	}

	utils.RespondData(w, chatResponse{
		Response:  reply.Response,
		StockData: reply.Snapshot,
	})
}

// handleCleanupSession 清理会话状态，重复调用无副作用
func (h *Handler) handleCleanupSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondStatus(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.chatSvc.Cleanup(r.Context(), payload.SessionID); err != nil {
		utils.RespondStatus(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	utils.RespondStatus(w, http.StatusOK, "Session cleaned up")
}
