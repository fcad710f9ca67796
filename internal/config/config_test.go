package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 100000, cfg.Server.MaxPoints)
	require.Equal(t, "png", cfg.Preview.Format)
	require.Equal(t, runtime.NumCPU(), cfg.Workers)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "geoproj.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: debug
  format: json
server:
  addr: "127.0.0.1:9000"
  read_timeout: 3s
preview:
  format: webp
  quality: 70
`), 0o644))
	t.Setenv("GEOPROJ_WORKERS", "8")
	t.Setenv("GEOPROJ_SERVER_MAX_POINTS", "500")

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	require.Equal(t, 500, cfg.Server.MaxPoints)
	require.Equal(t, "webp", cfg.Preview.Format)
	require.Equal(t, 70, cfg.Preview.Quality)
	require.Equal(t, 8, cfg.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Config{
		Log:     LogConfig{Level: "loud", Format: "xml"},
		Server:  ServerConfig{Addr: ":1", ReadTimeout: time.Second, WriteTimeout: time.Second, MaxPoints: 1},
		Preview: PreviewConfig{Width: 0, Height: 10, Format: "gif", Quality: 0},
		Workers: 0,
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"log.level", "log.format", "preview size", "preview.format", "preview.quality", "workers"} {
		require.Contains(t, err.Error(), want)
	}
	require.NotContains(t, err.Error(), "server.addr")
}
