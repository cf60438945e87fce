package models

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "CREATED"
	PaymentCaptured PaymentStatus = "CAPTURED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is an append-only audit row of a gateway transaction attempt.
type Payment struct {
	ID               int64           `json:"id"`
	BookingID        int64           `json:"booking_id"`
	UserID           int64           `json:"user_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	Status           PaymentStatus   `json:"status"`
	Amount           int64           `json:"amount"`
	Currency         string          `json:"currency"`
	RawPayload       json.RawMessage `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
}
