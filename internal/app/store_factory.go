package app

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/store"
	"github.com/shrimpsizemoose/registrar/internal/store/postgres"
	"github.com/shrimpsizemoose/registrar/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.Store, error) {
	dbType := store.DetectType(dsn)
	logger.Debug.Printf("Opening %s store, migrations from %s", dbType, migrationsDir)

	switch dbType {
	case store.DBTypePostgres:
		s, err := postgres.NewPostgresStore(dsn, migrationsDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case store.DBTypeSQLite:
		s, err := sqlite.NewSQLiteStore(dsn, migrationsDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
