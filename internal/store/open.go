package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Open returns the sink for driver, or nil for driver "none".
func Open(driver, dsn string, log *zap.Logger) (Sink, error) {
	switch driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		s, err := OpenSQLite(dsn, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		p, err := OpenPostgres(dsn, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
