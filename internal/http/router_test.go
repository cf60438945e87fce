package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	intconfig "travelbackend/internal/config"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/gateway"
	h "travelbackend/internal/http/handlers"
	"travelbackend/internal/http/middleware"
	"travelbackend/internal/repositories"
	"travelbackend/internal/services"
	"travelbackend/internal/vendor"
)

const (
	testJWTSecret = "jwt-test-secret"
	testKeySecret = "rzp-test-secret"
)

type stubGateway struct{ n int }

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (gateway.Order, error) {
	g.n++
	return gateway.Order{ID: "order_" + receipt + "_" + strconv.Itoa(g.n), Amount: amount, Currency: currency}, nil
}

func (g *stubGateway) FetchPayment(_ context.Context, id string) (gateway.PaymentInfo, error) {
	return gateway.PaymentInfo{ID: id, Status: "captured"}, nil
}

func (g *stubGateway) Refund(_ context.Context, paymentID string, _ int64, _ string) (string, error) {
	return "rfnd_" + paymentID, nil
}

type stubVendor struct{}

func (stubVendor) ConfirmBooking(context.Context, models.VendorPayload) (vendor.Confirmation, error) {
	return vendor.Confirmation{OK: true, Reference: "PNR42", Data: json.RawMessage(`{"status":"CONFIRMED"}`)}, nil
}

func (stubVendor) QueryStatus(context.Context, string) (vendor.StatusResult, error) {
	return vendor.StatusResult{}, nil
}

type testServer struct {
	t      *testing.T
	store  repositories.Store
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := intconfig.OpenDB(repositories.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := repositories.NewStore(db, repositories.DriverSQLite)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := intconfig.Env{JWTSecret: testJWTSecret, CORSAllowedOrigins: []string{"http://localhost:3000"}}
	deps := h.Deps{
		Store:     store,
		Gateway:   &stubGateway{},
		Vendor:    stubVendor{},
		KeySecret: testKeySecret,
		Sweeper:   &services.Sweeper{Store: store, Vendor: stubVendor{}},
	}
	return &testServer{t: t, store: store, router: NewRouter(env, deps)}
}

func (s *testServer) do(method, path string, userID int64, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.doAs(method, path, userID, "", body)
}

func (s *testServer) doAs(method, path string, userID int64, role string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			s.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		tok, err := middleware.IssueToken(testJWTSecret, userID, role)
		if err != nil {
			s.t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/bookings/1/status", 0, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body := decode(t, w); body["status"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("unexpected envelope %v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/1/status", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}

// orderedBooking creates a booking over HTTP and opens a gateway order for it.
func (s *testServer) orderedBooking(user int64) (int64, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/bookings", user, gin.H{
		"kind":           "FLIGHT",
		"amount":         500000,
		"vendor_payload": gin.H{"traceId": "T", "transactionId": "TX", "fareKey": "F", "passengers": []gin.H{{"firstName": "Asha", "lastName": "Rao"}}},
		"hold_minutes":   15,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create booking: %d %s", w.Code, w.Body.String())
	}
	booking := decode(s.t, w)
	if booking["status"] != "PRICE_LOCKED" {
		s.t.Fatalf("booking = %v", booking)
	}
	id := int64(booking["id"].(float64))

	w = s.do(http.MethodPost, "/api/payments/create-order", user, gin.H{"bookingId": id})
	if w.Code != http.StatusOK {
		s.t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	order := decode(s.t, w)
	orderID, _ := order["order_id"].(string)
	if orderID == "" || order["key_id"] != "rzp_test_key" || order["amount"].(float64) != 500000 {
		s.t.Fatalf("order = %v", order)
	}
	return id, orderID
}

func TestBookingPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	const user = int64(7)
	id, orderID := s.orderedBooking(user)

	w := s.do(http.MethodPost, "/api/payments/verify", user, gin.H{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   orderID,
		"razorpay_signature":  gateway.Sign(testKeySecret, orderID, "pay_1"),
		"bookingId":           id,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	if res := decode(t, w); res["status"] != "CONFIRMED" {
		t.Fatalf("verify result = %v", res)
	}

	w = s.do(http.MethodGet, "/api/bookings/"+strconv.FormatInt(id, 10)+"/status", user, nil)
	status := decode(t, w)
	if status["status"] != "CONFIRMED" || status["vendorPnr"] != "PNR42" || status["paymentId"] != "pay_1" {
		t.Fatalf("status = %v", status)
	}

	w = s.do(http.MethodGet, "/api/bookings/"+strconv.FormatInt(id, 10)+"/voucher", user, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("voucher: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("voucher is not a PDF")
	}
}

func TestBusinessErrorsUseStatusEnvelope(t *testing.T) {
	s := newTestServer(t)
	id, orderID := s.orderedBooking(3)

	w := s.do(http.MethodPost, "/api/payments/verify", 3, gin.H{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   orderID,
		"razorpay_signature":  "deadbeef",
		"bookingId":           id,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for business rejection, got %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "signature_mismatch" || body["error_description"] == "" {
		t.Fatalf("envelope = %v", body)
	}

	w = s.do(http.MethodGet, "/api/bookings/"+strconv.FormatInt(id, 10)+"/status", 3, nil)
	if decode(t, w)["status"] != "ORDER_CREATED" {
		t.Fatalf("signature mismatch must not change the booking: %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/bookings/"+strconv.FormatInt(id, 10)+"/status", 4, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign booking: expected 403, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/api/bookings/999/status", 3, nil)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "not_found" {
		t.Fatalf("missing booking: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/payments/create-order", 3, "{not json")
	if w.Code != http.StatusBadRequest || decode(t, w)["status"] != "validation_error" {
		t.Fatalf("malformed body: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/bookings/abc/status", 3, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
}

func TestExpenseEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	repos := s.store.Repos()

	owner := models.User{Username: "owner"}
	friend := models.User{Username: "friend"}
	for _, u := range []*models.User{&owner, &friend} {
		if err := repos.Users.Create(ctx, u); err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	trip := models.Trip{OwnerID: owner.ID, Title: "Goa"}
	if err := repos.Trips.Create(ctx, &trip); err != nil {
		t.Fatalf("trip: %v", err)
	}

	w := s.do(http.MethodPost, "/api/expenses/", owner.ID, gin.H{"trip_id": trip.ID, "amount": 300, "category": "food"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create expense: %d %s", w.Code, w.Body.String())
	}
	expenseID := int64(decode(t, w)["id"].(float64))

	w = s.do(http.MethodPost, "/api/expenses/addUser", owner.ID, gin.H{"expense_id": expenseID, "user_id": friend.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("add user: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/expenses/split", friend.ID, gin.H{"expense_id": expenseID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner split: %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/expenses/split", owner.ID, gin.H{"expense_id": expenseID})
	if w.Code != http.StatusOK {
		t.Fatalf("split: %d %s", w.Code, w.Body.String())
	}
	if ledger := decode(t, w)["ledger"].([]any); len(ledger) != 2 {
		t.Fatalf("ledger = %v", ledger)
	}

	w = s.do(http.MethodGet, "/api/expenses/split/bills", friend.ID, nil)
	bills := decode(t, w)
	if bills["toPay"].(float64) != 150 || len(bills["expenses"].([]any)) != 1 {
		t.Fatalf("bills = %v", bills)
	}

	w = s.do(http.MethodPost, "/api/expenses/settle/member", owner.ID, gin.H{"expense_id": expenseID, "user_id": friend.ID})
	if w.Code != http.StatusOK || decode(t, w)["fully_settled"] != true {
		t.Fatalf("settle member: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/expenses/settle", owner.ID, gin.H{"expense_id": expenseID})
	if w.Code != http.StatusOK {
		t.Fatalf("settle all on settled expense: %d %s", w.Code, w.Body.String())
	}
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(http.MethodGet, "/api/health", 0, nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/db-check", 0, nil); w.Code != http.StatusOK {
		t.Fatalf("db-check: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/routes", 0, nil); w.Code != http.StatusOK || len(decode(t, w)["routes"].([]any)) == 0 {
		t.Fatalf("routes: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/metrics", 0, nil); w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/admin/sweep", 1, nil); w.Code != http.StatusForbidden {
		t.Fatalf("sweep without admin role: %d", w.Code)
	}
	w := s.doAs(http.MethodPost, "/api/admin/sweep", 1, "admin", nil)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Fatalf("sweep: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/nope", 0, nil); w.Code != http.StatusNotFound {
		t.Fatalf("no route: %d", w.Code)
	}
}
