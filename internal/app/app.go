// Package app wires configuration into the store, external clients and services.
package app

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "travelbackend/internal/config"
	"travelbackend/internal/gateway"
	"travelbackend/internal/http/handlers"
	"travelbackend/internal/repositories"
	"travelbackend/internal/services"
	"travelbackend/internal/vendor"
)

type App struct {
	Env     intconfig.Env
	DB      *sql.DB
	Store   repositories.Store
	Gateway gateway.Gateway
	Vendor  vendor.Booker
	Sweeper *services.Sweeper
}

// Open connects the database, applies migrations and builds the clients.
func Open(ctx context.Context, env intconfig.Env) (*App, error) {
	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return nil, err
	}
	store := repositories.NewStore(db, env.DBDriver)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	vc := vendor.NewClient(env.VendorBaseURL, env.VendorAPIKey, env.VendorConfirmTimeout, env.VendorStatusTimeout)
	return &App{
		Env:     env,
		DB:      db,
		Store:   store,
		Gateway: gateway.NewRazorpay(env.RazorpayKeyID, env.RazorpayKeySecret),
		Vendor:  vc,
		Sweeper: &services.Sweeper{
			Store:       store,
			Vendor:      vc,
			Interval:    env.SweepInterval,
			Batch:       env.SweepBatch,
			Concurrency: env.SweepConcurrency,
		},
	}, nil
}

func (a *App) HandlerDeps() handlers.Deps {
	return handlers.Deps{
		Store:     a.Store,
		Gateway:   a.Gateway,
		Vendor:    a.Vendor,
		KeySecret: a.Env.RazorpayKeySecret,
		Sweeper:   a.Sweeper,
	}
}

func (a *App) Close() {
	intconfig.CloseDB()
}
