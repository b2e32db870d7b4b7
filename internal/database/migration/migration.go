package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_invocations",
		SQL: `CREATE TABLE IF NOT EXISTS invocations (
  id            UUID        PRIMARY KEY,
  function      TEXT        NOT NULL,
  trigger_path  TEXT        NOT NULL,
  output_path   TEXT        NOT NULL,
  status        TEXT        NOT NULL CHECK (status IN ('succeeded', 'failed')),
  error         TEXT        NOT NULL DEFAULT '',
  bytes_written BIGINT      NOT NULL DEFAULT 0 CHECK (bytes_written >= 0),
  started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  duration_ms   BIGINT      NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_invocations_function",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invocations_function ON invocations (function);`,
	},
	{
		Name: "create_index_invocations_trigger_path",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invocations_trigger_path ON invocations (trigger_path);`,
	},
	{
		Name: "create_index_invocations_started_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invocations_started_at ON invocations (started_at);`,
	},
}

// EnsureMigrated checks if the 'invocations' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()
	logger := log.G(ctx).WithFields(logrus.Fields{
		"component": "database",
		"db_host":   dbHost,
	})

	logger.WithField("event", "db_migration_check").Info("checking schema")

	var exists bool
	query := "SELECT to_regclass('public.invocations') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		logger.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	logger.WithField("event", "db_migration_start").Info("running migrations")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).WithError(err).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	logger.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("migrations complete")

	return nil
}
