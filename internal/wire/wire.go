// Package wire provides dependency injection for the controlcard application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/adapters/backend"
	cliadapter "github.com/example/controlcard/internal/adapters/cli"
	"github.com/example/controlcard/internal/adapters/persistence"
	"github.com/example/controlcard/internal/adapters/sqlite"
	"github.com/example/controlcard/internal/app"
	"github.com/example/controlcard/internal/config"
	"github.com/example/controlcard/internal/db"
	"github.com/example/controlcard/internal/ports/primary"
)

var (
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()

	database    *sql.DB
	cardService primary.CardService
	once        sync.Once
)

// Configure sets the configuration and logger the services are built from.
// It must be called before the first service accessor.
func Configure(c *config.Config, l *zap.Logger) {
	cfg = c
	if l != nil {
		logger = l
	}
}

// Config returns the active configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the application logger.
func Logger() *zap.Logger {
	return logger
}

// CardService returns the singleton CardService instance.
func CardService() primary.CardService {
	once.Do(initServices)
	return cardService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	database, err = db.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("path", cfg.Database), zap.Error(err))
	}

	// Repository adapters (secondary ports) with injected DB
	cardRepo := sqlite.NewCardRepository(database)
	rowRepo := sqlite.NewCellRowRepository(database)
	store := persistence.NewGridStore(rowRepo, logger)

	// Backend adapters share one client so the timeout is configured once
	client := &http.Client{Timeout: cfg.Timeout()}
	redeemer := backend.NewHTTPRedeemer(cfg.RedeemURL, client, logger)
	submitter := backend.NewHTTPSubmitter(cfg.SubmitURL, client, logger)

	cardService = app.NewCardService(cardRepo, store, redeemer, submitter, cfg.Rows, logger)
}

// Close releases the database if it was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// CardAdapter returns a new CardAdapter on stdout and stdin.
// Each call creates a new adapter (adapters are stateless translators).
func CardAdapter() *cliadapter.CardAdapter {
	return CardAdapterWithIO(os.Stdout, os.Stdin)
}

// CardAdapterWithIO returns a new CardAdapter on the given streams.
func CardAdapterWithIO(out io.Writer, in io.Reader) *cliadapter.CardAdapter {
	return cliadapter.NewCardAdapter(CardService(), out, in)
}
