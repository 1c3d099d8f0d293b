package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "PANECAST_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "PANECAST_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "PANECAST_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "PANECAST_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "PANECAST_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "PANECAST_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "PANECAST_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "returns fallback for empty string", key: "PANECAST_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "PANECAST_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "PANECAST_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback bool
		want     bool
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "PANECAST_TEST_BOOL_UNSET", setVal: nil, fallback: true, want: true},
		{name: "parses true", key: "PANECAST_TEST_BOOL_TRUE", setVal: strPtr("true"), fallback: false, want: true},
		{name: "parses false", key: "PANECAST_TEST_BOOL_FALSE", setVal: strPtr("false"), fallback: true, want: false},
		{name: "parses 1", key: "PANECAST_TEST_BOOL_ONE", setVal: strPtr("1"), fallback: false, want: true},
		{name: "errors on garbage", key: "PANECAST_TEST_BOOL_BAD", setVal: strPtr("yes please"), fallback: false, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvBool(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "PANECAST_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses milliseconds", key: "PANECAST_TEST_DUR_MS", setVal: strPtr("250ms"), fallback: 0, want: 250 * time.Millisecond},
		{name: "parses compound", key: "PANECAST_TEST_DUR_COMPOUND", setVal: strPtr("1m30s"), fallback: 0, want: 90 * time.Second},
		{name: "errors on bare number", key: "PANECAST_TEST_DUR_BARE", setVal: strPtr("100"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback []string
		want     []string
	}{
		{name: "returns fallback when unset", key: "PANECAST_TEST_LIST_UNSET", setVal: nil, fallback: []string{"a"}, want: []string{"a"}},
		{name: "splits on comma", key: "PANECAST_TEST_LIST_SPLIT", setVal: strPtr("a,b,c"), fallback: nil, want: []string{"a", "b", "c"}},
		{name: "trims whitespace", key: "PANECAST_TEST_LIST_TRIM", setVal: strPtr(" a , b "), fallback: nil, want: []string{"a", "b"}},
		{name: "drops empty entries", key: "PANECAST_TEST_LIST_EMPTYENT", setVal: strPtr("a,,b,"), fallback: nil, want: []string{"a", "b"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnvList(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Load / validate
// ---------------------------------------------------------------------------

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "panecast-recordings", cfg.Storage.Bucket)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/tmp/panecast", cfg.Relay.WorkDir)
	assert.Equal(t, 4096, cfg.Relay.FlushBytes)
	assert.Equal(t, 100*time.Millisecond, cfg.Relay.FlushInterval)
	assert.Equal(t, 2000, cfg.Relay.CaptureLines)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PANECAST_DB_PORT", "5433")
	t.Setenv("PANECAST_FLUSH_BYTES", "8192")
	t.Setenv("PANECAST_FLUSH_INTERVAL", "50ms")
	t.Setenv("PANECAST_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 8192, cfg.Relay.FlushBytes)
	assert.Equal(t, 50*time.Millisecond, cfg.Relay.FlushInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "rejects zero flush bytes", key: "PANECAST_FLUSH_BYTES", val: "0"},
		{name: "rejects negative flush interval", key: "PANECAST_FLUSH_INTERVAL", val: "-1s"},
		{name: "rejects zero capture lines", key: "PANECAST_CAPTURE_LINES", val: "0"},
		{name: "rejects out-of-range port", key: "PANECAST_DB_PORT", val: "70000"},
		{name: "rejects zero max conns", key: "PANECAST_DB_MAX_CONNS", val: "0"},
		{name: "rejects unparsable duration", key: "PANECAST_SERVER_READ_TIMEOUT", val: "soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "panecast",
		Password: "secret",
		DBName:   "panecast_prod",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=panecast password=secret dbname=panecast_prod sslmode=require",
		cfg.DSN(),
	)
}

func strPtr(s string) *string { return &s }
