package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/gateway"
	"travelbackend/internal/http/middleware"
	"travelbackend/internal/repositories"
	"travelbackend/internal/services"
	"travelbackend/internal/vendor"
)

// Deps are the long-lived collaborators handlers build per-request services from.
type Deps struct {
	Store     repositories.Store
	Gateway   gateway.Gateway
	Vendor    vendor.Booker
	KeySecret string
	Sweeper   *services.Sweeper
	Now       func() time.Time
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{Store: h.deps.Store, Now: h.deps.Now, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		Store:     h.deps.Store,
		Gateway:   h.deps.Gateway,
		Vendor:    h.deps.Vendor,
		KeySecret: h.deps.KeySecret,
		Now:       h.deps.Now,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) expenses(c *gin.Context) services.ExpenseService {
	return services.ExpenseService{Store: h.deps.Store, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{Store: h.deps.Store, RequestID: middleware.GetRequestID(c)}
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "request body is empty")
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload: "+err.Error())
		return false
	}
	return true
}

// currentUser reads the id Auth stored; it is always present behind Auth.
func currentUser(c *gin.Context) (int64, bool) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return uid, ok
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
