package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/services"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "travel backend running"})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.deps.Store.DB == nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "database not connected")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	var count int
	if err := h.deps.Store.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&count); err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "database query failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "driver": h.deps.Store.Driver, "bookings_in_db": count})
}

// Sweep runs one reconciliation pass on demand.
func (h *Handler) Sweep(c *gin.Context) {
	if h.deps.Sweeper == nil {
		respondError(c, http.StatusServiceUnavailable, "internal_error", "sweeper not configured")
		return
	}
	sum, err := h.deps.Sweeper.SweepOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			respondError(c, http.StatusOK, "sweep_in_progress", err.Error())
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "summary": sum})
}

// Routes lists the routes registered on r.
func Routes(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		routes := r.Routes()
		out := make([]gin.H, 0, len(routes))
		for _, rt := range routes {
			out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
		}
		c.JSON(http.StatusOK, gin.H{"routes": out})
	}
}
