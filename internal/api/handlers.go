package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jphelps/day-trading-api/internal/kafka"
	"github.com/jphelps/day-trading-api/internal/logger"
	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/service"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc      *service.Service
	producer *kafka.Producer
	log      *logger.Logger
}

// NewHandler creates a new Handler. producer may be nil when the event
// stream is disabled.
func NewHandler(svc *service.Service, producer *kafka.Producer, log *logger.Logger) *Handler {
	return &Handler{
		svc:      svc,
		producer: producer,
		log:      log,
	}
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Day Trading API is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetPortfolio handles GET /portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	positions, totalValue, err := h.svc.ListPortfolio(r.Context())
	if err != nil {
		h.log.Error("failed to fetch portfolio", logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{"Failed to fetch portfolio"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":  positions,
		"totalValue": totalValue,
	})
}

// GetTrades handles GET /trades
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.svc.ListTrades(r.Context())
	if err != nil {
		h.log.Error("failed to fetch trades", logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{"Failed to fetch trades"})
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

// PostTrade handles POST /trades. quantity and price accept JSON numbers or
// numeric strings.
func (h *Handler) PostTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string           `json:"symbol"`
		Type     string           `json:"type"`
		Quantity *decimal.Decimal `json:"quantity"`
		Price    *decimal.Decimal `json:"price"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{"Missing required fields: symbol, type, quantity, price"})
		return
	}

	trade, err := h.svc.RecordTrade(r.Context(), service.TradeRequest{
		Symbol:   req.Symbol,
		Side:     req.Type,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, errorResponse{verr.Message})
			return
		}
		h.log.Error("failed to record trade", logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{"Failed to record trade"})
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishTradeRecorded(r.Context(), trade); err != nil {
			// publishing is best-effort; the trade is already recorded
			h.log.Warn("failed to publish trade event",
				logger.String("trade_id", trade.ID),
				logger.Error(err))
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Trade recorded successfully",
		"trade":   trade,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
