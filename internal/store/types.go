package store

import (
	"fmt"
	"strings"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
}

// DetectType picks the dialect from the DSN scheme; anything that is not postgres is SQLite.
func DetectType(dsn string) DatabaseType {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.HasPrefix(dsn, "postgres ") {
		return DBTypePostgres
	}
	return DBTypeSQLite
}

// whereClause joins AND conditions, returning "" when there are none.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

func limitClause(size, offset int) string {
	if size <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", size, offset)
}

func likePattern(keyword string) string {
	return "%" + strings.ToLower(keyword) + "%"
}
