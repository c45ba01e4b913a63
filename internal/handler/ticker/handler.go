package ticker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
	chatService "github.com/zhouzirui/finbot/backend/internal/service/chat"
	marketService "github.com/zhouzirui/finbot/backend/internal/service/market"
	"github.com/zhouzirui/finbot/backend/pkg/utils"
)

// Handler 行情相关的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建行情处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册行情相关的路由，/ticker 挂在需要鉴权的路由上
func (h *Handler) RegisterRoutes(public, protected chi.Router) {
	public.Get("/get_ticker_data", h.handleGetTickerData)
	protected.Post("/ticker", h.handleTicker)
}

// handleGetTickerData 拉取行情并保存为会话的当前快照
func (h *Handler) handleGetTickerData(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	tickers := strings.TrimSpace(r.URL.Query().Get("tickers"))

	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	if tickers == "" {
		utils.RespondError(w, http.StatusBadRequest, "Tickers are required")
		return
	}

	snap, err := h.chatSvc.FetchAndStore(r.Context(), sessionID, tickers)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondData(w, snap)
}

// handleTicker 查询单次行情（默认一年），不写入任何会话
func (h *Handler) handleTicker(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Ticker string       `json:"ticker"`
		Range  market.Range `json:"range"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload.Ticker = strings.TrimSpace(payload.Ticker)
	if payload.Ticker == "" {
		utils.RespondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	if payload.Range == "" {
		payload.Range = market.Range1y
	}

	snap, err := h.chatSvc.Lookup(r.Context(), payload.Ticker, payload.Range)
	if err != nil {
		if errors.Is(err, chatService.ErrInvalidArgument) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusNotFound, lookupMessage(payload.Ticker, err))
		return
	}

	utils.RespondData(w, snap)
}

func lookupMessage(ticker string, err error) string {
	switch {
	case errors.Is(err, marketService.ErrSymbolNotFound):
		return fmt.Sprintf("Ticker '%s' not found or may be delisted.", ticker)
	case errors.Is(err, marketService.ErrEmptyHistory):
		return fmt.Sprintf("No historical data available for ticker '%s'.", ticker)
	default:
		return fmt.Sprintf("Error processing ticker '%s': %v", ticker, err)
	}
}
