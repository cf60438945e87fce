package repositories

import (
	"context"
	"fmt"
	"time"

	intdb "travelbackend/internal/db"
	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
)

// PaymentRepository is append-only: rows are never updated or deleted.
type PaymentRepository struct {
	DB intdb.DBTX
}

// Create appends a payment row. A second CAPTURED row for the same booking is
// rejected; callers hold the booking row lock, which serializes this check.
func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.BookingID <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	if p.Status == models.PaymentCaptured {
		n, err := r.CountByStatus(ctx, p.BookingID, models.PaymentCaptured)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("booking %d already has a captured payment", p.BookingID)}
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO payments (booking_id, user_id, gateway_payment_id, gateway_order_id, status, amount, currency, raw_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.UserID, p.GatewayPaymentID, p.GatewayOrderID, string(p.Status), p.Amount, p.Currency,
		intdb.NullIfEmpty(string(p.RawPayload)), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read payment id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (r PaymentRepository) CountByStatus(ctx context.Context, bookingID int64, status models.PaymentStatus) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE booking_id=? AND status=?`, bookingID, string(status),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return n, nil
}

// ListByBooking returns all payment rows of a booking in insertion order.
func (r PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, booking_id, user_id, gateway_payment_id, gateway_order_id, status, amount, currency,
		       COALESCE(raw_payload,''), created_at
		FROM payments
		WHERE booking_id=?
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		var (
			p       models.Payment
			status  string
			raw     string
			created int64
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.GatewayPaymentID, &p.GatewayOrderID,
			&status, &p.Amount, &p.Currency, &raw, &created); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Status = models.PaymentStatus(status)
		if raw != "" {
			p.RawPayload = []byte(raw)
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return out, nil
}
