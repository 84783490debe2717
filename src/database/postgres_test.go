package database

import (
	"context"
	"errors"
	"io"
	"testing"

	"assetfolio/src/config"
	"assetfolio/src/repositories"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecrets map[string]string

func (s stubSecrets) GetSecretValue(_ context.Context, id string) (string, error) {
	v, ok := s[id]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSQLConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("no secret configured", func(t *testing.T) {
		in := config.SQLConfig{Password: "plain"}
		out, err := ResolveSQLConfig(ctx, in, stubSecrets{})
		require.NoError(t, err)
		assert.Equal(t, "plain", out.Password)
	})

	t.Run("password from secret", func(t *testing.T) {
		in := config.SQLConfig{Host: "db", Password: "plain", PasswordSecretID: "prod/db"}
		out, err := ResolveSQLConfig(ctx, in, stubSecrets{"prod/db": "rotated"})
		require.NoError(t, err)
		assert.Equal(t, "rotated", out.Password)
		assert.Contains(t, out.DSN(), "password=rotated")
	})

	t.Run("secret lookup fails", func(t *testing.T) {
		in := config.SQLConfig{PasswordSecretID: "missing"}
		_, err := ResolveSQLConfig(ctx, in, stubSecrets{})
		assert.Error(t, err)
	})
}

func TestNewStoreMemory(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Databases.SQL.Driver = config.DriverMemory

	store, err := NewStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &repositories.MemoryStore{}, store)
}

func TestSetupDBRejectsBadDSN(t *testing.T) {
	_, err := SetupDB(context.Background(), config.SQLConfig{ConnectionString: "postgres://%zz"})
	assert.ErrorContains(t, err, "failed to parse database config")
}
