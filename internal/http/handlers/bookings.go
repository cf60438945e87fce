package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/services"
)

type createBookingRequest struct {
	Kind          string          `json:"kind" binding:"required"`
	Amount        int64           `json:"amount" binding:"required"`
	Currency      string          `json:"currency"`
	VendorPayload json.RawMessage `json:"vendor_payload" binding:"required"`
	HoldMinutes   int             `json:"hold_minutes"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	b, err := h.bookings(c).CreateBooking(c.Request.Context(), uid, services.CreateBookingInput{
		Kind:          req.Kind,
		Amount:        req.Amount,
		Currency:      req.Currency,
		VendorPayload: req.VendorPayload,
		HoldMinutes:   req.HoldMinutes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b.ToPublic())
}

func (h *Handler) GetBookingStatus(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pub, err := h.bookings(c).GetStatus(c.Request.Context(), id, uid)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pub)
}

// GetBookingVoucher returns the PDF voucher of a confirmed booking (inline).
func (h *Handler) GetBookingVoucher(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pdfBytes, filename, err := h.docs(c).GenerateVoucher(c.Request.Context(), id, uid)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
