package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/repositories"
	"travelbackend/internal/utils"
)

const maxHoldMinutes = 24 * 60

// BookingService creates price-locked bookings and serves owner-scoped reads.
type BookingService struct {
	Store     repositories.Store
	Now       func() time.Time
	RequestID string
}

type CreateBookingInput struct {
	Kind          string
	Amount        int64
	Currency      string
	VendorPayload json.RawMessage
	HoldMinutes   int
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateBooking stores a PRICE_LOCKED booking, the state every payment flow starts from.
func (s BookingService) CreateBooking(ctx context.Context, userID int64, in CreateBookingInput) (models.Booking, error) {
	kind, ok := models.ParseVendorKind(in.Kind)
	if !ok {
		return models.Booking{}, domain.ValidationError{Field: "kind", Msg: "must be HOTEL, FLIGHT or BUS"}
	}
	if in.Amount <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "amount", Msg: "must be a positive integer in minor units"}
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "INR"
	}
	if len(currency) != 3 {
		return models.Booking{}, domain.ValidationError{Field: "currency", Msg: "must be an ISO 4217 code"}
	}
	if in.HoldMinutes < 0 || in.HoldMinutes > maxHoldMinutes {
		return models.Booking{}, domain.ValidationError{Field: "hold_minutes", Msg: "out of range"}
	}
	payload, err := models.ParseVendorPayload(kind, in.VendorPayload)
	if err != nil {
		return models.Booking{}, domain.ValidationError{Field: "vendor_payload", Msg: err.Error(), Err: err}
	}

	b := models.Booking{
		UserID:        userID,
		Kind:          kind,
		Amount:        in.Amount,
		Currency:      currency,
		Status:        models.StatusPriceLocked,
		VendorRequest: payload,
	}
	if in.HoldMinutes > 0 {
		exp := s.now().Add(time.Duration(in.HoldMinutes) * time.Minute).Truncate(time.Second)
		b.HoldExpiresAt = &exp
	}
	if err := s.Store.Repos().Bookings.Create(ctx, &b); err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "booking", "create", "booking price locked",
		"booking_id", b.ID, "user_id", userID, "kind", string(kind), "amount", b.Amount)
	return b, nil
}

// GetStatus returns the public projection of a booking the user owns.
func (s BookingService) GetStatus(ctx context.Context, bookingID, userID int64) (models.PublicBooking, error) {
	b, err := s.ownedBooking(ctx, bookingID, userID)
	if err != nil {
		return models.PublicBooking{}, err
	}
	return b.ToPublic(), nil
}

func (s BookingService) ownedBooking(ctx context.Context, bookingID, userID int64) (models.Booking, error) {
	b, err := s.Store.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.UserID != userID {
		utils.LogWarn(s.RequestID, "booking", "read", "ownership mismatch",
			"booking_id", strconv.FormatInt(bookingID, 10), "user_id", userID)
		return models.Booking{}, domain.ForbiddenError{Resource: "booking"}
	}
	return b, nil
}
