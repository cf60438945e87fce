package api

import (
	"log/slog"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	intconfig "travelbackend/internal/config"
	h "travelbackend/internal/http/handlers"
	"travelbackend/internal/http/middleware"
)

func NewRouter(env intconfig.Env, deps h.Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		slog.Warn("failed to set trusted proxies", "error", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"status":            "not_found",
			"error":             "not_found",
			"error_description": "route not found",
			"path":              c.Request.URL.Path,
			"method":            c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hd := h.New(deps)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", h.Routes(r))

		authed := api.Group("", middleware.Auth(env.JWTSecret))

		// Bookings
		bookings := authed.Group("/bookings")
		bookings.POST("", hd.CreateBooking)
		bookings.GET("/:id/status", hd.GetBookingStatus)
		bookings.GET("/:id/voucher", hd.GetBookingVoucher)

		// Payments
		payments := authed.Group("/payments")
		payments.POST("/create-order", hd.CreateOrder)
		payments.POST("/verify", hd.VerifyPayment)

		// Expenses
		expenses := authed.Group("/expenses")
		expenses.POST("/", hd.CreateExpense)
		expenses.POST("/addUser", hd.ToggleExpenseUser)
		expenses.POST("/split", hd.SplitExpense)
		expenses.POST("/settle", hd.SettleExpense)
		expenses.POST("/settle/member", hd.SettleExpenseMember)
		expenses.GET("/split/bills", hd.SplitBills)

		// Admin
		admin := authed.Group("/admin", middleware.RequireRoles("admin"))
		admin.POST("/sweep", hd.Sweep)
	}

	return r
}
