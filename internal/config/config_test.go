package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IMPORT_ACQUIRE_TIMEOUT", "")
	t.Setenv("IMPORT_EXEC_TIMEOUT", "")
	t.Setenv("DB_DRIVER", "")

	cfg := Load()
	require.Equal(t, 5*time.Second, cfg.ImportAcquireTimeout)
	require.Equal(t, 20*time.Second, cfg.ImportExecTimeout)
	require.Equal(t, "sqlite", cfg.DBDriver)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IMPORT_ACQUIRE_TIMEOUT", "750ms")
	t.Setenv("IMPORT_EXEC_TIMEOUT", "-1s")
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()
	require.Equal(t, 750*time.Millisecond, cfg.ImportAcquireTimeout)
	require.Equal(t, 20*time.Second, cfg.ImportExecTimeout)
	require.Equal(t, "pgx", cfg.DBDriver)
	require.EqualValues(t, 1024, cfg.MaxUploadBytes)
}

func TestGetList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://localhost:3000, ,https://dispatch.example.com")
	require.Equal(t, []string{"http://localhost:3000", "https://dispatch.example.com"}, GetList("CORS_ORIGINS"))

	t.Setenv("CORS_ORIGINS", "")
	require.Empty(t, GetList("CORS_ORIGINS"))
}
