package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/gateway"
	"travelbackend/internal/metrics"
	"travelbackend/internal/repositories"
	"travelbackend/internal/utils"
	"travelbackend/internal/vendor"
)

// PaymentService runs the order-then-verify protocol: a gateway order is
// created for a price-locked booking, and a verified payment is turned into a
// vendor confirmation or a compensating refund.
type PaymentService struct {
	Store     repositories.Store
	Gateway   gateway.Gateway
	Vendor    vendor.Booker
	KeySecret string
	Now       func() time.Time
	RequestID string
}

type OrderResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type VerifyInput struct {
	BookingID     int64
	UserID        int64
	OrderID       string
	PaymentID     string
	Signature     string
	ClaimedAmount *int64
}

type VerifyResult struct {
	Message string               `json:"message"`
	Status  models.BookingStatus `json:"status"`
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateOrder opens a gateway order for the booking amount. The gateway call
// happens before the row is locked; the write re-checks status under lock.
func (s PaymentService) CreateOrder(ctx context.Context, bookingID, userID int64) (OrderResult, error) {
	b, err := s.Store.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return OrderResult{}, err
	}
	if err := s.checkOrderable(b, userID); err != nil {
		return OrderResult{}, err
	}

	receipt := "booking_" + strconv.FormatInt(b.ID, 10)
	order, err := s.Gateway.CreateOrder(ctx, b.Amount, b.Currency, receipt, map[string]string{
		"booking_id": strconv.FormatInt(b.ID, 10),
		"kind":       string(b.Kind),
	})
	if err != nil {
		utils.LogError(s.RequestID, "payment", "create_order", "gateway order failed", "booking_id", b.ID, "error", err)
		return OrderResult{}, domain.GatewayFailureError{Op: "create order", Err: err}
	}

	err = s.Store.WithTx(ctx, func(r repositories.Repos) error {
		locked, err := r.Bookings.GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := s.checkOrderable(locked, userID); err != nil {
			return err
		}
		next := models.StatusOrderCreated
		return r.Bookings.Update(ctx, locked.ID, locked.Status, models.BookingUpdate{
			Status:         &next,
			GatewayOrderID: &order.ID,
		})
	})
	if err != nil {
		return OrderResult{}, err
	}

	utils.LogEvent(s.RequestID, "payment", "create_order", "gateway order created",
		"booking_id", b.ID, "order_id", order.ID)

	currency := order.Currency
	if currency == "" {
		currency = b.Currency
	}
	return OrderResult{OrderID: order.ID, Amount: b.Amount, Currency: currency, KeyID: s.Gateway.KeyID()}, nil
}

func (s PaymentService) checkOrderable(b models.Booking, userID int64) error {
	if b.UserID != userID {
		return domain.ForbiddenError{Resource: "booking"}
	}
	if b.Status != models.StatusPriceLocked && b.Status != models.StatusOrderCreated {
		return domain.InvalidStateError{Resource: "booking", State: string(b.Status), Msg: "order can only be created before payment"}
	}
	if b.HoldExpired(s.now()) {
		return domain.HoldExpiredError{BookingID: b.ID}
	}
	return nil
}

// outcome is what the finalize transaction decided; it is turned into the
// caller's result only after the transaction commits.
type outcome struct {
	status  models.BookingStatus
	message string
	err     error
	metric  string
}

// VerifyAndFinalize checks the checkout signature, then under the booking row
// lock confirms the booking with the vendor or refunds the payment. Every
// write of a given call commits together or not at all.
func (s PaymentService) VerifyAndFinalize(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	if in.BookingID <= 0 {
		return VerifyResult{}, domain.ValidationError{Field: "bookingId", Msg: "required"}
	}
	if strings.TrimSpace(in.OrderID) == "" || strings.TrimSpace(in.PaymentID) == "" || strings.TrimSpace(in.Signature) == "" {
		return VerifyResult{}, domain.ValidationError{Field: "razorpay", Msg: "order id, payment id and signature are required"}
	}
	if !gateway.VerifySignature(s.KeySecret, in.OrderID, in.PaymentID, in.Signature) {
		utils.LogWarn(s.RequestID, "payment", "verify", "payment signature mismatch",
			"security_event", true, "booking_id", in.BookingID, "user_id", in.UserID, "order_id", in.OrderID)
		metrics.Reconciliations.WithLabelValues("rejected").Inc()
		return VerifyResult{}, domain.SignatureMismatchError{}
	}

	// A captured payment must reach a recorded outcome even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	var out outcome
	err := s.Store.WithTx(ctx, func(r repositories.Repos) error {
		var err error
		out, err = s.finalize(ctx, r, in)
		return err
	})
	if err != nil {
		metrics.Reconciliations.WithLabelValues("rejected").Inc()
		return VerifyResult{}, err
	}

	metrics.Reconciliations.WithLabelValues(out.metric).Inc()
	if out.err != nil {
		return VerifyResult{Message: out.message, Status: out.status}, out.err
	}
	return VerifyResult{Message: out.message, Status: out.status}, nil
}

// fetchPayment is best effort. A failed lookup yields a zero PaymentInfo: no
// audit payload and no known captured amount.
func (s PaymentService) fetchPayment(ctx context.Context, paymentID string) gateway.PaymentInfo {
	info, err := s.Gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		utils.LogWarn(s.RequestID, "payment", "verify", "payment fetch failed", "payment_id", paymentID, "error", err)
		return gateway.PaymentInfo{}
	}
	return info
}

// refundAmount is what the processor actually captured, or the booking amount
// when that is unknown.
func refundAmount(b models.Booking, captured gateway.PaymentInfo) int64 {
	if captured.Amount > 0 {
		return captured.Amount
	}
	return b.Amount
}

func (s PaymentService) finalize(ctx context.Context, r repositories.Repos, in VerifyInput) (outcome, error) {
	b, err := r.Bookings.GetForUpdate(ctx, in.BookingID)
	if err != nil {
		return outcome{}, err
	}
	if b.UserID != in.UserID {
		return outcome{}, domain.ForbiddenError{Resource: "booking"}
	}

	switch b.Status {
	case models.StatusConfirmed:
		return outcome{status: b.Status, message: "payment already verified", metric: "duplicate"}, nil
	case models.StatusPending:
		if b.GatewayPayID == in.PaymentID {
			return outcome{status: b.Status, message: "payment already verified, vendor confirmation pending", metric: "duplicate"}, nil
		}
		return outcome{}, domain.InvalidStateError{Resource: "booking", State: string(b.Status), Msg: "booking already paid with another payment"}
	case models.StatusOrderCreated:
	default:
		return outcome{}, domain.InvalidStateError{Resource: "booking", State: string(b.Status), Msg: "payment cannot be verified"}
	}

	if b.GatewayOrderID != "" && b.GatewayOrderID != in.OrderID {
		return outcome{}, domain.OrderMismatchError{Expected: b.GatewayOrderID, Got: in.OrderID}
	}
	amountMismatch := in.ClaimedAmount != nil && *in.ClaimedAmount != b.Amount

	captured := s.fetchPayment(ctx, in.PaymentID)
	raw := captured.Raw

	// PENDING_WEBHOOK records the payment id; every exit from here is a
	// refund or a confirmation, both of which leave from this state.
	pending := models.StatusPendingWebhook
	if err := r.Bookings.Update(ctx, b.ID, b.Status, models.BookingUpdate{
		Status:       &pending,
		GatewayPayID: &in.PaymentID,
	}); err != nil {
		return outcome{}, err
	}
	b.Status = pending
	b.GatewayPayID = in.PaymentID

	if amountMismatch {
		reason := fmt.Sprintf("amount mismatch: booking %d, paid %d", b.Amount, *in.ClaimedAmount)
		if err := s.refund(ctx, r, b, refundAmount(b, captured), reason, raw); err != nil {
			return outcome{}, err
		}
		return outcome{
			status:  models.StatusFailedRefunded,
			message: "amount mismatch, payment refunded",
			err:     domain.OrderMismatchError{Expected: strconv.FormatInt(b.Amount, 10), Got: strconv.FormatInt(*in.ClaimedAmount, 10)},
			metric:  "refunded",
		}, nil
	}

	conf, verr := s.Vendor.ConfirmBooking(ctx, b.VendorRequest)
	switch {
	case verr == nil && conf.OK:
		if err := s.markPaid(ctx, r, b, models.StatusConfirmed, conf, raw); err != nil {
			return outcome{}, err
		}
		utils.LogEvent(s.RequestID, "payment", "verify", "booking confirmed",
			"booking_id", b.ID, "vendor_reference", conf.Reference)
		return outcome{status: models.StatusConfirmed, message: "payment verified and booking confirmed", metric: "confirmed"}, nil

	case verr == nil && conf.Pending:
		if err := s.markPaid(ctx, r, b, models.StatusPending, conf, raw); err != nil {
			return outcome{}, err
		}
		utils.LogEvent(s.RequestID, "payment", "verify", "vendor confirmation pending", "booking_id", b.ID)
		return outcome{status: models.StatusPending, message: "payment verified, booking confirmation pending", metric: "pending"}, nil
	}

	reason := conf.Error
	if verr != nil {
		reason = verr.Error()
	}
	if reason == "" {
		reason = "vendor declined booking"
	}
	utils.LogWarn(s.RequestID, "payment", "verify", "vendor confirmation failed", "booking_id", b.ID, "reason", reason)
	if err := s.refund(ctx, r, b, refundAmount(b, captured), reason, raw); err != nil {
		return outcome{}, err
	}
	return outcome{
		status:  models.StatusFailedRefunded,
		message: "booking failed, payment refunded",
		err:     domain.VendorFailureError{Reason: reason, Err: verr},
		metric:  "refunded",
	}, nil
}

func (s PaymentService) markPaid(ctx context.Context, r repositories.Repos, b models.Booking, to models.BookingStatus, conf vendor.Confirmation, raw json.RawMessage) error {
	upd := models.BookingUpdate{Status: &to, VendorResponse: conf.Data}
	if conf.Reference != "" {
		upd.VendorReference = &conf.Reference
	}
	if err := r.Bookings.Update(ctx, b.ID, b.Status, upd); err != nil {
		return err
	}
	return r.Payments.Create(ctx, &models.Payment{
		BookingID:        b.ID,
		UserID:           b.UserID,
		GatewayPaymentID: b.GatewayPayID,
		GatewayOrderID:   b.GatewayOrderID,
		Status:           models.PaymentCaptured,
		Amount:           b.Amount,
		Currency:         b.Currency,
		RawPayload:       raw,
	})
}

// refund compensates a captured payment. A failed refund call does not stop
// the booking from reaching FAILED_REFUNDED; the error is kept in notes and
// the refund id stays empty for manual follow-up.
func (s PaymentService) refund(ctx context.Context, r repositories.Repos, b models.Booking, amount int64, reason string, raw json.RawMessage) error {
	notes := reason
	refundID, err := s.Gateway.Refund(ctx, b.GatewayPayID, amount, reason)
	if err != nil {
		metrics.RefundFailures.Inc()
		utils.LogError(s.RequestID, "payment", "refund", "refund call failed",
			"booking_id", b.ID, "payment_id", b.GatewayPayID, "error", err)
		notes = reason + "; refund failed: " + err.Error()
		refundID = ""
	}

	failed := models.StatusFailedRefunded
	upd := models.BookingUpdate{Status: &failed, Notes: &notes}
	if refundID != "" {
		upd.GatewayRefundID = &refundID
	}
	if err := r.Bookings.Update(ctx, b.ID, b.Status, upd); err != nil {
		return err
	}
	return r.Payments.Create(ctx, &models.Payment{
		BookingID:        b.ID,
		UserID:           b.UserID,
		GatewayPaymentID: b.GatewayPayID,
		GatewayOrderID:   b.GatewayOrderID,
		Status:           models.PaymentRefunded,
		Amount:           amount,
		Currency:         b.Currency,
		RawPayload:       raw,
	})
}
