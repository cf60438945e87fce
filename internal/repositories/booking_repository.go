package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "travelbackend/internal/db"
	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
)

type BookingRepository struct {
	DB     intdb.DBTX
	Driver string
}

const bookingColumns = `
	id,
	user_id,
	kind,
	amount,
	currency,
	status,
	COALESCE(vendor_request,''),
	COALESCE(vendor_response,''),
	COALESCE(vendor_reference,''),
	COALESCE(gateway_order_id,''),
	COALESCE(gateway_payment_id,''),
	COALESCE(gateway_refund_id,''),
	COALESCE(notes,''),
	hold_expires_at,
	created_at,
	updated_at`

func scanBooking(row scanner) (models.Booking, error) {
	var (
		b                   models.Booking
		kind, status        string
		vendorReq, vendorRe string
		hold                sql.NullInt64
		created, updated    int64
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&kind,
		&b.Amount,
		&b.Currency,
		&status,
		&vendorReq,
		&vendorRe,
		&b.VendorReference,
		&b.GatewayOrderID,
		&b.GatewayPayID,
		&b.GatewayRefundID,
		&b.Notes,
		&hold,
		&created,
		&updated,
	); err != nil {
		return models.Booking{}, err
	}

	b.Kind = models.VendorKind(kind)
	b.Status = models.BookingStatus(status)
	if vendorReq != "" {
		payload, err := models.DecodeVendorPayload(b.Kind, []byte(vendorReq))
		if err != nil {
			// keep the raw bytes so the row stays readable
			payload = models.VendorPayload{Kind: b.Kind, Raw: []byte(vendorReq)}
		}
		b.VendorRequest = payload
	}
	if vendorRe != "" {
		b.VendorResponse = []byte(vendorRe)
	}
	b.HoldExpiresAt = intdb.FromNullUnix(hold)
	b.CreatedAt = time.Unix(created, 0).UTC()
	b.UpdatedAt = time.Unix(updated, 0).UTC()
	return b, nil
}

// Create inserts a booking and fills ID and timestamps.
func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	body, err := b.VendorRequest.Body()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	if b.Status == "" {
		b.Status = models.StatusPriceLocked
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (user_id, kind, amount, currency, status, vendor_request, notes, hold_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, string(b.Kind), b.Amount, b.Currency, string(b.Status), string(body),
		intdb.NullIfEmpty(b.Notes), intdb.NullUnix(b.HoldExpiresAt), now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetByID reads a booking without locking.
func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate reads a booking and holds its row lock until the transaction ends.
func (r BookingRepository) GetForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	return r.get(ctx, id, lockClause(r.Driver))
}

func (r BookingRepository) get(ctx context.Context, id int64, lock string) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`+lock, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Update applies upd only while the row is still in status from. A status
// change must be a legal transition; zero rows matched means a concurrent
// writer moved the booking first.
func (r BookingRepository) Update(ctx context.Context, id int64, from models.BookingStatus, upd models.BookingUpdate) error {
	if upd.Status != nil && !models.CanTransition(from, *upd.Status) {
		return domain.InvalidStateError{Resource: "booking", State: string(from), Msg: "cannot move to " + string(*upd.Status)}
	}

	sets := []string{}
	args := []any{}
	set := func(col string, val any) {
		sets = append(sets, col+"=?")
		args = append(args, val)
	}

	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	if len(upd.VendorResponse) > 0 {
		set("vendor_response", string(upd.VendorResponse))
	}
	if upd.VendorReference != nil {
		set("vendor_reference", intdb.NullIfEmpty(strings.TrimSpace(*upd.VendorReference)))
	}
	if upd.GatewayOrderID != nil {
		set("gateway_order_id", intdb.NullIfEmpty(*upd.GatewayOrderID))
	}
	if upd.GatewayPayID != nil {
		set("gateway_payment_id", intdb.NullIfEmpty(*upd.GatewayPayID))
	}
	if upd.GatewayRefundID != nil {
		set("gateway_refund_id", intdb.NullIfEmpty(*upd.GatewayRefundID))
	}
	if upd.Notes != nil {
		set("notes", intdb.NullIfEmpty(*upd.Notes))
	}
	if len(sets) == 0 {
		return nil
	}
	set("updated_at", time.Now().UTC().Unix())
	args = append(args, id, string(from))

	res, err := r.DB.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ",")+` WHERE id=? AND status=?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("booking %d is no longer %s", id, from)}
	}
	return nil
}

// ListByStatus returns up to limit bookings in status, oldest first.
func (r BookingRepository) ListByStatus(ctx context.Context, status models.BookingStatus, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=? ORDER BY updated_at, id LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return out, nil
}
