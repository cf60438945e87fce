package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/services"
)

type createOrderRequest struct {
	BookingID int64 `json:"bookingId" binding:"required,gt=0"`
}

type verifyRequest struct {
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
	BookingID int64  `json:"bookingId" binding:"required,gt=0"`
	Amount    *int64 `json:"amount"`
}

// CreateOrder opens a gateway order for a price-locked booking.
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	res, err := h.payments(c).CreateOrder(c.Request.Context(), req.BookingID, uid)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifyPayment finalizes a booking after the client reports a captured payment.
func (h *Handler) VerifyPayment(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req verifyRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	res, err := h.payments(c).VerifyAndFinalize(c.Request.Context(), services.VerifyInput{
		BookingID:     req.BookingID,
		UserID:        uid,
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
		ClaimedAmount: req.Amount,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
