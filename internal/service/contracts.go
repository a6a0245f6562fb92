package service

import (
	"github.com/powerpay/backend/internal/ledger"
	"github.com/powerpay/backend/internal/models"
)

// Request bodies. Field names follow the public API contract.

type createChannelRequest struct {
	PayerAddress    string `json:"payerAddress"`
	PayeeAddress    string `json:"payeeAddress"`
	TotalAmount     uint64 `json:"totalAmount"`
	ExpiryTimestamp uint64 `json:"expiryTimestamp"`
}

type intentRequest struct {
	Amount uint64 `json:"amount"`
}

// processRequest carries the deterministic-testing overrides. It is only
// decoded when test routes are enabled; the production settlement endpoint
// takes no parameters.
type processRequest struct {
	ForcedRandom *uint64 `json:"forcedRandom,omitempty"`
	Threshold    *uint64 `json:"threshold,omitempty"`
}

type distributionRequest struct {
	Iterations int     `json:"iterations,omitempty"`
	Threshold  *uint64 `json:"threshold,omitempty"`
	Amount     *uint64 `json:"amount,omitempty"`
}

// Response payloads. Every response carries the success/message envelope;
// errors are reported with errorEnvelope and a non-2xx status, never as a
// success payload with an embedded failure flag.

type channelSummary struct {
	ID          string `json:"id"`
	Payer       string `json:"payer"`
	Payee       string `json:"payee"`
	TotalAmount uint64 `json:"totalAmount"`
}

type createChannelResponse struct {
	Success bool           `json:"success"`
	Channel channelSummary `json:"channel"`
	Message string         `json:"message"`
}

type intentResult struct {
	ChannelID         string `json:"channelId"`
	Amount            uint64 `json:"amount"`
	AccumulatedIntent uint64 `json:"accumulatedIntent"`
}

type intentResponse struct {
	Success bool         `json:"success"`
	Intent  intentResult `json:"intent"`
	Message string       `json:"message"`
}

type paymentResult struct {
	ChannelID     string `json:"channelId"`
	Executed      bool   `json:"executed"`
	Amount        uint64 `json:"amount,omitempty"`
	PendingAmount uint64 `json:"pendingAmount,omitempty"`
	RandomValue   uint64 `json:"randomValue"`
	Threshold     uint64 `json:"threshold"`
	NewPaidTotal  uint64 `json:"newPaidTotal,omitempty"`
}

type paymentResponse struct {
	Success bool          `json:"success"`
	Payment paymentResult `json:"payment"`
	Message string        `json:"message"`
}

type closeResult struct {
	ID              string        `json:"id"`
	Status          models.Status `json:"status"`
	FinalPaidAmount uint64        `json:"finalPaidAmount"`
}

type closeResponse struct {
	Success bool        `json:"success"`
	Channel closeResult `json:"channel"`
	Message string      `json:"message"`
}

type getChannelResponse struct {
	Success bool            `json:"success"`
	Channel *models.Channel `json:"channel"`
}

type distributionResponse struct {
	Success     bool                       `json:"success"`
	TestResults *ledger.DistributionResult `json:"testResults"`
	Message     string                     `json:"message"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
