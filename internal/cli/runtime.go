package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"vibequiz/internal/app"
	"vibequiz/internal/config"
	"vibequiz/internal/domain"
	"vibequiz/internal/infra/backend"
	"vibequiz/internal/infra/chain"
	"vibequiz/internal/infra/memory"
	pgledger "vibequiz/internal/infra/postgres"
	redisstore "vibequiz/internal/infra/redis"
	"vibequiz/internal/lib/slogcustom"
	"vibequiz/internal/transport/ws"
	"vibequiz/internal/wallet"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// runtime is the dependency graph shared by the interactive views.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	out      io.Writer
	in       io.Reader
	wallet   *wallet.Session
	backend  *backend.Client
	contract *chain.Contract
	index    app.QuizIndex
	ledger   app.Ledger
	closers  []func()

	inputOnce sync.Once
	input     <-chan string
}

// missingProvider stands in for the wallet when none could be reached.
type missingProvider struct{}

func (missingProvider) Request(context.Context, string, ...any) (json.RawMessage, error) {
	return nil, domain.ErrProviderNotFound
}

func loadConfig(path string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, slogcustom.New(os.Stderr, cfg.Log.Level, cfg.ColorEnabled()), nil
}

func newRuntime(cmd *cobra.Command, path string) (*runtime, error) {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		out:     cmd.OutOrStdout(),
		in:      cmd.InOrStdin(),
		backend: backend.NewClient(cfg.Backend.URL, nil, config.TTLDuration(cfg.Backend.Timeout, 30*time.Second)),
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.ledger = ledger
	rt.closers = append(rt.closers, closeLedger)

	var provider wallet.Provider
	var requester chain.Requester = missingProvider{}
	conn, err := ws.Dial(ctx, cfg.Wallet.URL, logger)
	if err != nil {
		logger.Warn("wallet provider unavailable", "url", cfg.Wallet.URL, "err", err)
	} else {
		provider, requester = conn, conn
		rt.closers = append(rt.closers, func() { _ = conn.Close() })
	}

	rt.contract, err = chain.NewContract(requester, cfg.Chain.Contract, config.TTLDuration(cfg.Chain.ReceiptPoll, time.Second), logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	indexTTL := config.TTLDuration(cfg.Chain.IndexTTL, 30*time.Second)
	var store wallet.AddressStore
	if redisClient != nil {
		rt.index = redisstore.NewIndexRepository(redisClient, rt.contract, cfg.Chain.Contract, indexTTL)
		store = redisstore.NewAddressStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 0))
	} else {
		rt.index = memory.NewIndexRepository(rt.contract, indexTTL)
		store = memory.NewAddressStore()
	}

	rt.wallet = wallet.NewSession(provider, store, logger)
	rt.closers = append(rt.closers, rt.wallet.Close)
	rt.wallet.Init(ctx)
	return rt, nil
}

// openLedger picks the postgres ledger when configured, else an in-memory one.
func openLedger(ctx context.Context, cfg config.Config) (app.Ledger, func(), error) {
	if cfg.Postgres.URL == "" {
		return memory.NewLedger(), func() {}, nil
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pgledger.NewLedger(pool), pool.Close, nil
}

// Close releases connections in reverse order of creation.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// requireWallet prompts a connect when no address is known.
func (rt *runtime) requireWallet(ctx context.Context) (string, error) {
	if address := rt.wallet.Address(); address != "" {
		return address, nil
	}
	fmt.Fprintln(rt.out, "Please connect your wallet first.")
	if err := rt.wallet.Connect(ctx); err != nil {
		return "", err
	}
	if address := rt.wallet.Address(); address != "" {
		return address, nil
	}
	return "", domain.ErrWalletNotConnected
}

// lines returns the shared input stream; every view reads from the same one
// so no two scanners compete for stdin.
func (rt *runtime) lines(ctx context.Context) <-chan string {
	rt.inputOnce.Do(func() { rt.input = lines(ctx, rt.in) })
	return rt.input
}

// lines streams trimmed input lines until r is exhausted. The reader
// goroutine may outlive ctx while blocked on a terminal read.
func lines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
