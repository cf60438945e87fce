package models

import (
	"encoding/json"
	"time"
)

// BookingStatus is the reconciliation state of a booking.
type BookingStatus string

const (
	StatusPriceLocked    BookingStatus = "PRICE_LOCKED"
	StatusOrderCreated   BookingStatus = "ORDER_CREATED"
	StatusPendingWebhook BookingStatus = "PENDING_WEBHOOK"
	// StatusPending means payment is captured and the vendor is confirming asynchronously.
	StatusPending        BookingStatus = "PENDING"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusFailedRefunded BookingStatus = "FAILED_REFUNDED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPriceLocked:    {StatusOrderCreated},
	StatusOrderCreated:   {StatusOrderCreated, StatusPendingWebhook},
	StatusPendingWebhook: {StatusConfirmed, StatusFailedRefunded, StatusPending},
	StatusPending:        {StatusConfirmed},
}

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailedRefunded
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPriceLocked, StatusOrderCreated, StatusPendingWebhook, StatusPending, StatusConfirmed, StatusFailedRefunded:
		return true
	}
	return false
}

// CanTransition encodes the booking state DAG. Terminal states have no outgoing edges.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking is one reservation attempt against a vendor. Amount is in minor units (paise).
type Booking struct {
	ID              int64
	UserID          int64
	Kind            VendorKind
	Amount          int64
	Currency        string
	Status          BookingStatus
	VendorRequest   VendorPayload
	VendorResponse  json.RawMessage
	VendorReference string
	GatewayOrderID  string
	GatewayPayID    string
	GatewayRefundID string
	Notes           string
	HoldExpiresAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HoldExpired reports whether the price hold lapsed before now.
func (b Booking) HoldExpired(now time.Time) bool {
	return b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// PublicBooking is the owner-facing projection; vendor and gateway payloads are never exposed.
type PublicBooking struct {
	ID            int64      `json:"id"`
	Kind          VendorKind `json:"kind"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	VendorPnr     string     `json:"vendorPnr,omitempty"`
	OrderID       string     `json:"orderId,omitempty"`
	PaymentID     string     `json:"paymentId,omitempty"`
	RefundID      string     `json:"refundId,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (b Booking) ToPublic() PublicBooking {
	return PublicBooking{
		ID:            b.ID,
		Kind:          b.Kind,
		Status:        string(b.Status),
		Amount:        b.Amount,
		Currency:      b.Currency,
		VendorPnr:     b.VendorReference,
		OrderID:       b.GatewayOrderID,
		PaymentID:     b.GatewayPayID,
		RefundID:      b.GatewayRefundID,
		Notes:         b.Notes,
		HoldExpiresAt: b.HoldExpiresAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// BookingUpdate supports PATCH-style updates via key presence.
type BookingUpdate struct {
	Status          *BookingStatus
	VendorResponse  json.RawMessage
	VendorReference *string
	GatewayOrderID  *string
	GatewayPayID    *string
	GatewayRefundID *string
	Notes           *string
}
