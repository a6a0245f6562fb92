package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/powerpay/backend/internal/ledger"
	"github.com/powerpay/backend/internal/metrics"
	"github.com/powerpay/backend/internal/settlement"
	"github.com/powerpay/backend/internal/validator"
)

// Handler serves the payment channel HTTP API on top of the ledger.
type Handler struct {
	ledger     *ledger.Ledger
	testRoutes bool
}

// NewHandler returns a Handler. When enableTestRoutes is true the settlement
// endpoint accepts forcedRandom/threshold overrides and the distribution
// endpoint is mounted; both stay disabled in production.
func NewHandler(led *ledger.Ledger, enableTestRoutes bool) *Handler {
	return &Handler{ledger: led, testRoutes: enableTestRoutes}
}

func (h *Handler) createChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validator.IsValid(req.PayerAddress) || !validator.IsValid(req.PayeeAddress) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	id, err := h.ledger.Create(r.Context(), req.PayerAddress, req.PayeeAddress, req.TotalAmount, req.ExpiryTimestamp)
	if err != nil {
		slog.Error("failed to create channel", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	metrics.ChannelsCreated.Inc()
	slog.Info("channel created", "channel_id", id, "total_amount", req.TotalAmount)

	writeJSON(w, http.StatusCreated, createChannelResponse{
		Success: true,
		Channel: channelSummary{
			ID:          id,
			Payer:       req.PayerAddress,
			Payee:       req.PayeeAddress,
			TotalAmount: req.TotalAmount,
		},
		Message: "Payment channel created successfully",
	})
}

func (h *Handler) addIntent(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accumulated, err := h.ledger.AddIntent(r.Context(), channelID, req.Amount)
	if err != nil {
		slog.Error("failed to add payment intent", "channel_id", channelID, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	metrics.IntentsAdded.Inc()

	writeJSON(w, http.StatusOK, intentResponse{
		Success: true,
		Intent: intentResult{
			ChannelID:         channelID,
			Amount:            req.Amount,
			AccumulatedIntent: accumulated,
		},
		Message: "Payment intent recorded",
	})
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var params ledger.SettleParams
	if h.testRoutes {
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		params.SeedOverride = req.ForcedRandom
		params.ThresholdOverride = req.Threshold
	}

	result, err := h.ledger.Settle(r.Context(), channelID, params)
	if err != nil {
		slog.Error("failed to process payment", "channel_id", channelID, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	metrics.Settlements.WithLabelValues(metrics.SettlementResultLabel(result.Executed)).Inc()

	payment := paymentResult{
		ChannelID:   channelID,
		Executed:    result.Executed,
		RandomValue: result.RandomValue,
		Threshold:   result.Threshold,
	}
	message := fmt.Sprintf("Payment deferred (%d/%d)", result.RandomValue, settlement.Modulus)
	if result.Executed {
		metrics.AmountPaid.Add(float64(result.Amount))
		payment.Amount = result.Amount
		payment.NewPaidTotal = result.PaidAmount
		message = fmt.Sprintf("Payment executed (%d/%d)", result.RandomValue, settlement.Modulus)
		slog.Info("payment executed", "channel_id", channelID, "amount", result.Amount, "paid_total", result.PaidAmount)
	} else {
		payment.PendingAmount = result.Amount
	}

	writeJSON(w, http.StatusOK, paymentResponse{Success: true, Payment: payment, Message: message})
}

func (h *Handler) closeChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	finalPaid, err := h.ledger.Close(r.Context(), channelID)
	if err != nil {
		slog.Error("failed to close channel", "channel_id", channelID, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	metrics.ChannelsClosed.Inc()
	slog.Info("channel closed", "channel_id", channelID, "final_paid", finalPaid)

	writeJSON(w, http.StatusOK, closeResponse{
		Success: true,
		Channel: closeResult{
			ID:              channelID,
			Status:          "closed",
			FinalPaidAmount: finalPaid,
		},
		Message: "Payment channel closed",
	})
}

func (h *Handler) getChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	ch, err := h.ledger.Get(r.Context(), channelID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, getChannelResponse{Success: true, Channel: ch})
}

func (h *Handler) testDistribution(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	req := distributionRequest{Iterations: 100}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	threshold := uint64(settlement.DefaultThreshold)
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	amount := uint64(1)
	if req.Amount != nil {
		amount = *req.Amount
	}

	result, err := h.ledger.RunDistribution(r.Context(), channelID, req.Iterations, threshold, amount)
	if err != nil {
		slog.Error("distribution test failed", "channel_id", channelID, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, distributionResponse{
		Success:     true,
		TestResults: result,
		Message: fmt.Sprintf("Executed %d of %d settlements (%.2f%% vs expected %.2f%%)",
			result.Executed, result.TotalIterations, result.ExecutionRate*100, result.ExpectedRate*100),
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorStatus maps ledger errors to HTTP status codes. Unknown errors are
// treated as internal failures.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidParameters),
		errors.Is(err, ledger.ErrChannelClosed),
		errors.Is(err, ledger.ErrAlreadyClosed),
		errors.Is(err, ledger.ErrChannelExpired),
		errors.Is(err, ledger.ErrInsufficientCapacity),
		errors.Is(err, ledger.ErrNoAccumulatedIntent):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrStoreUnavailable),
		errors.Is(err, ledger.ErrRandomSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Success: false, Message: message})
}
