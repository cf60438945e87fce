package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	intconfig "travelbackend/internal/config"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/gateway"
	"travelbackend/internal/repositories"
	"travelbackend/internal/vendor"
)

const testSecret = "rzp_test_secret"

type fakeGateway struct {
	mu            sync.Mutex
	orders        int
	refunds       []string
	refundAmounts []int64
	refundErr     error
	orderErr      error
	fetches       int
	fetchErr      error
	captured      map[string]int64
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderErr != nil {
		return gateway.Order{}, g.orderErr
	}
	g.orders++
	return gateway.Order{ID: receipt + "_order_" + strconv.Itoa(g.orders), Amount: amount, Currency: currency}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, id string) (gateway.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return gateway.PaymentInfo{}, g.fetchErr
	}
	return gateway.PaymentInfo{
		ID:     id,
		Status: "captured",
		Amount: g.captured[id],
		Raw:    json.RawMessage(`{"id":"` + id + `","status":"captured"}`),
	}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, amount int64, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, paymentID)
	g.refundAmounts = append(g.refundAmounts, amount)
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return "rfnd_" + paymentID, nil
}

type fakeVendor struct {
	mu        sync.Mutex
	confirms  int
	conf      vendor.Confirmation
	err       error
	statuses  map[string]vendor.StatusResult
	statusErr map[string]error
	queries   int
}

func (v *fakeVendor) ConfirmBooking(_ context.Context, _ models.VendorPayload) (vendor.Confirmation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.confirms++
	return v.conf, v.err
}

func (v *fakeVendor) QueryStatus(_ context.Context, ref string) (vendor.StatusResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queries++
	if err := v.statusErr[ref]; err != nil {
		return vendor.StatusResult{}, err
	}
	return v.statuses[ref], nil
}

type testEnv struct {
	store   repositories.Store
	gateway *fakeGateway
	vendor  *fakeVendor
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := intconfig.OpenDB(repositories.DriverSQLite, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := repositories.NewStore(db, repositories.DriverSQLite)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &testEnv{
		store:   store,
		gateway: &fakeGateway{},
		vendor:  &fakeVendor{conf: vendor.Confirmation{OK: true, Reference: "PNR123", Data: json.RawMessage(`{"status":"CONFIRMED"}`)}},
		now:     time.Now().UTC(),
	}
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) bookings() BookingService {
	return BookingService{Store: e.store, Now: e.clock}
}

func (e *testEnv) payments() PaymentService {
	return PaymentService{Store: e.store, Gateway: e.gateway, Vendor: e.vendor, KeySecret: testSecret, Now: e.clock}
}

func (e *testEnv) expenses() ExpenseService {
	return ExpenseService{Store: e.store}
}

func (e *testEnv) priceLocked(t *testing.T, userID, amount int64) models.Booking {
	t.Helper()
	b, err := e.bookings().CreateBooking(context.Background(), userID, CreateBookingInput{
		Kind:          "FLIGHT",
		Amount:        amount,
		VendorPayload: json.RawMessage(`{"traceId":"T1","transactionId":"TX-1","fareKey":"F","passengers":[{"firstName":"Asha","lastName":"Rao"}]}`),
		HoldMinutes:   15,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

// ordered returns a booking in ORDER_CREATED with its gateway order id.
func (e *testEnv) ordered(t *testing.T, userID, amount int64) (models.Booking, string) {
	t.Helper()
	b := e.priceLocked(t, userID, amount)
	res, err := e.payments().CreateOrder(context.Background(), b.ID, userID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return b, res.OrderID
}

func (e *testEnv) verifyInput(b models.Booking, orderID, paymentID string) VerifyInput {
	return VerifyInput{
		BookingID: b.ID,
		UserID:    b.UserID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: gateway.Sign(testSecret, orderID, paymentID),
	}
}

func (e *testEnv) reload(t *testing.T, id int64) models.Booking {
	t.Helper()
	b, err := e.store.Repos().Bookings.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	return b
}

func (e *testEnv) paymentRows(t *testing.T, bookingID int64) []models.Payment {
	t.Helper()
	rows, err := e.store.Repos().Payments.ListByBooking(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	return rows
}

func (e *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Username: name}
	if err := e.store.Repos().Users.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) trip(t *testing.T, ownerID int64) models.Trip {
	t.Helper()
	tr := models.Trip{OwnerID: ownerID, Title: "trip"}
	if err := e.store.Repos().Trips.Create(context.Background(), &tr); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return tr
}

var errVendorDown = errors.New("vendor unreachable")
