package refstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/config"
	"github.com/jonathan/markup-checker/internal/db"
	"github.com/jonathan/markup-checker/internal/logging"
)

// Open selects the store from configuration: PostgreSQL when DatabaseURL is
// set, SQLite when StorePath is set, memory otherwise.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	logger = logging.OrNop(logger)

	switch {
	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		logger.Debug("Using PostgreSQL reference store")
		return database, nil

	case cfg.StorePath != "":
		store, err := NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open reference store %s: %w", cfg.StorePath, err)
		}
		logger.Debug("Using SQLite reference store", zap.String("path", cfg.StorePath))
		return store, nil

	default:
		logger.Debug("Using in-memory reference store")
		return NewMemoryStore(), nil
	}
}
