package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/cache/redis"
	"github.com/halcyoncap/arbengine/internal/chain"
	"github.com/halcyoncap/arbengine/internal/config"
	"github.com/halcyoncap/arbengine/internal/custody"
	"github.com/halcyoncap/arbengine/internal/domain"
	"github.com/halcyoncap/arbengine/internal/notify"
	"github.com/halcyoncap/arbengine/internal/orchestrator"
	"github.com/halcyoncap/arbengine/internal/server"
	"github.com/halcyoncap/arbengine/internal/server/handler"
	"github.com/halcyoncap/arbengine/internal/server/ws"
	"github.com/halcyoncap/arbengine/internal/store/postgres"
	ammvenue "github.com/halcyoncap/arbengine/internal/venue/amm"
	auctionvenue "github.com/halcyoncap/arbengine/internal/venue/auction"
)

// Dependencies bundles everything the application needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Chain        *chain.Client
	Guard        domain.Guard
	Ledger       *custody.Ledger
	Treasury     *custody.Treasury
	Orchestrator *orchestrator.Orchestrator
	ResultStore  domain.ResultStore
	Hub          *ws.Hub
	Notifier     *notify.Notifier
	Server       *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources in reverse construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Operator key and chain client ---
	key, err := chain.LoadKey(chain.KeyConfig{
		RawPrivateKey:    cfg.Operator.PrivateKey,
		EncryptedKeyPath: cfg.Operator.EncryptedKeyPath,
		KeyPassword:      cfg.Operator.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: operator key: %w", err)
	}

	client, err := chain.Dial(ctx, cfg.Chain.RpcURL, key, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, client.Close)
	deps.Chain = client

	// --- Venue bindings ---
	auctionAddr := common.HexToAddress(cfg.Venues.Auction)
	auction := chain.NewAuction(client, auctionAddr)

	// The base asset's wrapped form is whatever the auction venue settles in.
	wrappedAddr, err := auction.WrappedBaseAsset(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: resolve wrapped base asset: %w", err)
	}
	wrapped := chain.NewWrapped(client, wrappedAddr)

	amm := chain.NewAMM(client, common.HexToAddress(cfg.Venues.AmmFactory))
	resolver := chain.NewResolver(client)

	// --- Custody and authorization ---
	deps.Guard = domain.NewGuard(client.From())
	deps.Ledger = custody.NewLedger(client.From(), wrapped, auction, resolver, logger)
	deps.Treasury = custody.NewTreasury(deps.Guard, deps.Ledger, wrapped, auction, resolver, logger)

	// --- Orchestrator ---
	orch := orchestrator.New(
		deps.Guard,
		deps.Ledger,
		ammvenue.NewAdapter(amm, logger),
		auctionvenue.NewAdapter(auction, logger),
		wrappedAddr,
		amm.Address(),
		auctionAddr,
		logger,
	)
	deps.Orchestrator = orch

	// --- Redis lock (cross-process flow serialization) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		orch.SetLockManager(redis.NewLockManager(redisClient), cfg.Arbitrage.LockTTL.Duration)
	} else {
		logger.Warn("redis disabled, flows are not serialized across processes")
	}

	// --- PostgreSQL result history ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.ResultStore = postgres.NewResultStore(pgClient)
		orch.SetResultStore(deps.ResultStore)
	}

	// --- Observers: websocket stream and notifications ---
	deps.Hub = ws.NewHub(logger)
	closers = append(closers, deps.Hub.Close)
	orch.AddResultSink(deps.Hub)

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	if len(senders) > 0 {
		orch.AddResultSink(deps.Notifier)
	}

	// --- HTTP server ---
	if cfg.Server.Enabled {
		operator := client.From()
		deps.Server = server.NewServer(
			server.Config{Port: cfg.Server.Port, APIKey: cfg.Operator.ApiKey},
			server.Handlers{
				Health:    handler.NewHealthHandler(),
				Arbitrage: handler.NewArbitrageHandler(orch, operator, logger),
				Custody:   handler.NewCustodyHandler(deps.Treasury, operator, logger),
				Results:   handler.NewResultsHandler(deps.ResultStore, logger),
			},
			deps.Hub,
			logger,
		)
	}

	return deps, cleanup, nil
}
