package database

import (
	"context"
	"fmt"

	"assetfolio/src/config"
	"assetfolio/src/repositories"
	aws_handler "assetfolio/src/utils/aws"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// SecretGetter reads a secret string by id.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, secretID string) (string, error)
}

// SetupDB opens the pgx pool described by sqlCfg and pings it.
func SetupDB(ctx context.Context, sqlCfg config.SQLConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(sqlCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if sqlCfg.MaxConns > 0 {
		poolCfg.MaxConns = sqlCfg.MaxConns
	}
	if sqlCfg.MinConns > 0 {
		poolCfg.MinConns = sqlCfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// ResolveSQLConfig returns the SQL settings with the password taken from
// Secrets Manager when passwordSecretId is set.
func ResolveSQLConfig(ctx context.Context, sqlCfg config.SQLConfig, secrets SecretGetter) (config.SQLConfig, error) {
	if sqlCfg.PasswordSecretID == "" {
		return sqlCfg, nil
	}
	password, err := secrets.GetSecretValue(ctx, sqlCfg.PasswordSecretID)
	if err != nil {
		return sqlCfg, err
	}
	sqlCfg.Password = password
	return sqlCfg, nil
}

// NewStore builds the store selected by databases.sql.driver.
func NewStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repositories.Store, error) {
	if cfg.Databases.SQL.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store, data will not survive a restart")
		return repositories.NewMemoryStore(), nil
	}

	sqlCfg := cfg.Databases.SQL
	if sqlCfg.PasswordSecretID != "" {
		awsHandler, err := aws_handler.NewAWSHandler(cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create aws session: %w", err)
		}
		if sqlCfg, err = ResolveSQLConfig(ctx, sqlCfg, awsHandler.SecretManager); err != nil {
			return nil, err
		}
	}

	pool, err := SetupDB(ctx, sqlCfg)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"host": sqlCfg.Host, "database": sqlCfg.Database}).Info("Connected to Postgres")
	return repositories.NewPostgresStore(pool), nil
}
