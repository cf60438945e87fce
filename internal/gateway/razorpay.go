// Package gateway talks to the payment processor: order creation, payment
// lookup, refunds and checkout signature verification.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

type Order struct {
	ID       string
	Amount   int64
	Currency string
}

type PaymentInfo struct {
	ID     string
	Status string
	Amount int64
	Raw    json.RawMessage
}

// Gateway is the subset of the processor API the reconciliation engine uses.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (Order, error)
	FetchPayment(ctx context.Context, paymentID string) (PaymentInfo, error)
	Refund(ctx context.Context, paymentID string, amount int64, reason string) (string, error)
	KeyID() string
}

type Razorpay struct {
	keyID  string
	client *razorpay.Client
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		keyID:  keyID,
		client: razorpay.NewClient(keyID, keySecret),
	}
}

func (r *Razorpay) KeyID() string { return r.keyID }

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": strings.ToUpper(currency),
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		n := map[string]interface{}{}
		for k, v := range notes {
			n[k] = v
		}
		data["notes"] = n
	}

	body, err := call(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.Create(data, nil)
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	order := Order{
		ID:       stringField(body, "id"),
		Amount:   intField(body, "amount"),
		Currency: stringField(body, "currency"),
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("create order: response has no id")
	}
	return order, nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, paymentID string) (PaymentInfo, error) {
	body, err := call(ctx, func() (map[string]interface{}, error) {
		return r.client.Payment.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		return PaymentInfo{}, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	raw, _ := json.Marshal(body)
	return PaymentInfo{
		ID:     stringField(body, "id"),
		Status: stringField(body, "status"),
		Amount: intField(body, "amount"),
		Raw:    raw,
	}, nil
}

func (r *Razorpay) Refund(ctx context.Context, paymentID string, amount int64, reason string) (string, error) {
	data := map[string]interface{}{
		"notes": map[string]interface{}{"reason": reason},
	}
	body, err := call(ctx, func() (map[string]interface{}, error) {
		return r.client.Payment.Refund(paymentID, int(amount), data, nil)
	})
	if err != nil {
		return "", fmt.Errorf("refund payment %s: %w", paymentID, err)
	}
	id := stringField(body, "id")
	if id == "" {
		return "", fmt.Errorf("refund payment %s: response has no id", paymentID)
	}
	return id, nil
}

// call runs a blocking SDK request and gives up when ctx ends. The SDK has no
// context support, so an abandoned request finishes in the background.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.body, res.err
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// intField reads a JSON number, which the SDK decodes as float64.
func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}
