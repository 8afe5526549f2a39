package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAddr = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"

// validConfig returns defaults plus the fields Validate requires.
func validConfig() Config {
	cfg := Defaults()
	cfg.Operator.PrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	cfg.Operator.ApiKey = "secret"
	cfg.Chain.RpcURL = "http://localhost:8545"
	cfg.Venues.AmmFactory = validAddr
	cfg.Venues.Auction = validAddr
	cfg.Database.Enabled = false
	cfg.Redis.Enabled = false
	return cfg
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RequiresKeySource(t *testing.T) {
	cfg := validConfig()
	cfg.Operator.PrivateKey = ""
	cfg.Operator.EncryptedKeyPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")
}

func TestValidate_EncryptedKeyNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Operator.PrivateKey = ""
	cfg.Operator.EncryptedKeyPath = "/etc/arbengine/key.json"
	cfg.Operator.KeyPassword = ""

	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresRpcURL(t *testing.T) {
	cfg := validConfig()
	cfg.Chain.RpcURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadVenueAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Venues.AmmFactory = "not-an-address"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amm_factory")
}

func TestValidate_ApiKeyRequiredWhenServerEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Operator.ApiKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg.Server.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LockTTLMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Arbitrage.LockTTL = duration{}
	assert.Error(t, cfg.Validate())
}

func TestValidate_DatabasePoolBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Enabled = true
	cfg.Database.PoolMinConns = 20
	cfg.Database.PoolMaxConns = 10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool_min_conns")
}

func TestValidate_ReportsAllProblemsAtOnce(t *testing.T) {
	cfg := validConfig()
	cfg.Chain.RpcURL = ""
	cfg.Venues.Auction = "bogus"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_url")
	assert.Contains(t, err.Error(), "auction")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
log_level = "debug"

[chain]
rpc_url = "http://node:8545"

[arbitrage]
lock_ttl = "45s"

[server]
port = 9090
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://node:8545", cfg.Chain.RpcURL)
	assert.Equal(t, 45*time.Second, cfg.Arbitrage.LockTTL.Duration)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Database.RunMigrations)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "info"`), 0o600))

	t.Setenv("ARBX_LOG_LEVEL", "warn")
	t.Setenv("ARBX_CHAIN_RPC_URL", "ws://env:8546")
	t.Setenv("ARBX_ARBITRAGE_LOCK_TTL", "90s")
	t.Setenv("ARBX_SERVER_ENABLED", "false")
	t.Setenv("ARBX_NOTIFY_EVENTS", "opportunity_failed, error")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "ws://env:8546", cfg.Chain.RpcURL)
	assert.Equal(t, 90*time.Second, cfg.Arbitrage.LockTTL.Duration)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, []string{"opportunity_failed", "error"}, cfg.Notify.Events)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
