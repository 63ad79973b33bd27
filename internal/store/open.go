package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kinship-cli/internal/resilience"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// DefaultSQLitePath is used when the sqlite driver has no database URL.
const DefaultSQLitePath = "kinship.db"

// Options selects and configures a store backend.
type Options struct {
	Driver      string
	DatabaseURL string
	Schema      string
	MaxConns    int32
	MinConns    int32
	Retry       resilience.RetryConfig
}

// Open creates the configured store and runs its migrations. The none
// driver returns a nil Store and no error.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)
	switch opts.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverSQLite:
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires a database URL")
		}
		st, err = NewPostgres(ctx, PostgresConfig{
			URL:      opts.DatabaseURL,
			Schema:   opts.Schema,
			MaxConns: opts.MaxConns,
			MinConns: opts.MinConns,
			Retry:    opts.Retry,
		})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
