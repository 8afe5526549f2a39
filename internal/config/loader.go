package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBX_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBX_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// --- Operator ---
	setStr(&cfg.Operator.PrivateKey, "ARBX_OPERATOR_PRIVATE_KEY")
	setStr(&cfg.Operator.EncryptedKeyPath, "ARBX_OPERATOR_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Operator.KeyPassword, "ARBX_OPERATOR_KEY_PASSWORD")
	setStr(&cfg.Operator.ApiKey, "ARBX_OPERATOR_API_KEY")

	// --- Chain / venues ---
	setStr(&cfg.Chain.RpcURL, "ARBX_CHAIN_RPC_URL")
	setStr(&cfg.Venues.AmmFactory, "ARBX_VENUES_AMM_FACTORY")
	setStr(&cfg.Venues.Auction, "ARBX_VENUES_AUCTION")

	// --- Arbitrage ---
	setDuration(&cfg.Arbitrage.LockTTL, "ARBX_ARBITRAGE_LOCK_TTL")

	// --- Database ---
	setBool(&cfg.Database.Enabled, "ARBX_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "ARBX_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ARBX_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ARBX_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ARBX_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "ARBX_DATABASE_USER")
	setStr(&cfg.Database.Password, "ARBX_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ARBX_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "ARBX_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ARBX_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ARBX_DATABASE_RUN_MIGRATIONS")

	// --- Redis ---
	setBool(&cfg.Redis.Enabled, "ARBX_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBX_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBX_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBX_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBX_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBX_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBX_REDIS_TLS_ENABLED")

	// --- Server ---
	setBool(&cfg.Server.Enabled, "ARBX_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBX_SERVER_PORT")

	// --- Notify ---
	setStr(&cfg.Notify.TelegramToken, "ARBX_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBX_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "ARBX_NOTIFY_EVENTS")

	// --- Top-level ---
	setStr(&cfg.LogLevel, "ARBX_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
