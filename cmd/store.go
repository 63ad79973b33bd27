package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kinship-cli/internal/resilience"
	"github.com/sells-group/kinship-cli/internal/store"
)

// storeOptions maps the loaded config onto store.Options.
func storeOptions() store.Options {
	r := cfg.Store.Retry
	return store.Options{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		Schema:      cfg.Store.Schema,
		MaxConns:    cfg.Store.MaxConns,
		MinConns:    cfg.Store.MinConns,
		Retry:       resilience.FromRetryConfig(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs),
	}
}

// initStore opens the configured run store. It returns a nil Store for the
// none driver.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, storeOptions())
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// requireStore is initStore for commands that cannot work without history.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("a run store is required (store.driver is none)")
	}
	return st, nil
}
