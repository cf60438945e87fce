package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/app"
	intconfig "travelbackend/internal/config"
	router "travelbackend/internal/http"
	"travelbackend/internal/logging"
)

func main() {
	env := intconfig.LoadEnv()
	logging.Setup(env.LogLevel)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.RazorpayKeySecret == "" {
		slog.Warn("RAZORPAY_KEY_SECRET is empty; every payment verification will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, env)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	r := router.NewRouter(env, a.HandlerDeps())

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// verify waits on the vendor for up to VENDOR_CONFIRM_TIMEOUT
		WriteTimeout: env.VendorConfirmTimeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.Sweeper.Run(ctx)
	}()

	go func() {
		slog.Info("server listening", "addr", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	<-sweepDone
	slog.Info("server stopped")
}
