package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"task-wallet/internal/adapters/input/httpapi"
	"task-wallet/internal/adapters/output/filestore"
	"task-wallet/internal/adapters/output/gotrue"
	"task-wallet/internal/adapters/output/labelstudio"
	"task-wallet/internal/adapters/output/postgres"
	"task-wallet/internal/config"
	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/ports"
	"task-wallet/internal/core/service"
	dbinfra "task-wallet/internal/infrastructure/db"
	"task-wallet/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Server *http.Server
	Ledger ports.LedgerUseCases
	Tasks  ports.TaskUseCases
	close  func()
}

func Init(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.Init(cfg.Logger.Env)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	pool, err := dbinfra.ConnectToDB(cfg.GetDSN(), log)
	if err != nil {
		log.Error("failed to connect to db", zap.Error(err))
		_ = log.Sync()
		return nil, err
	}

	if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
		log.Error("failed to ensure ledger schema", zap.Error(err))
		pool.Close()
		_ = log.Sync()
		return nil, err
	}

	balanceRepo := postgres.NewBalanceRepository(pool, log)
	transactionRepo := postgres.NewTransactionRepository(pool, log)
	procedures := postgres.NewProcedures(pool, log)

	repoFactory := func(q dbinfra.Querier) ports.Repositories {
		return ports.Repositories{
			Balances:     postgres.NewBalanceRepository(q, log),
			Transactions: postgres.NewTransactionRepository(q, log),
		}
	}
	uow := dbinfra.NewUnitOfWorkManager(pool, log, repoFactory)

	ledgerService, err := service.NewLedgerService(procedures, balanceRepo, transactionRepo, uow, log)
	if err != nil {
		log.Error("failed to init ledger service", zap.Error(err))
		pool.Close()
		_ = log.Sync()
		return nil, err
	}

	sourceClient := labelstudio.NewClient(sourceClientConfig(cfg.Source), log)
	taskCache := filestore.NewTaskCache(cfg.Cache.Dir, cfg.Cache.TTL, log)
	completedSet := filestore.NewCompletedSet(cfg.Cache.Dir, log)

	taskService, err := service.NewTaskService(
		sourceClient,
		taskCache,
		completedSet,
		ledgerService,
		rewardTable(cfg.Rewards),
		refreshCategories(cfg.Source.AlwaysRefresh),
		log,
	)
	if err != nil {
		log.Error("failed to init task service", zap.Error(err))
		pool.Close()
		_ = log.Sync()
		return nil, err
	}

	authClient := gotrue.NewClient(cfg.Auth.URL, cfg.Auth.APIKey, log)

	server := httpapi.NewServer(
		taskService,
		ledgerService,
		authClient,
		cfg,
		&sourceReconfigurer{client: sourceClient},
		taskCache,
		log,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config: cfg,
		Log:    log,
		Server: httpServer,
		Ledger: ledgerService,
		Tasks:  taskService,
		close: func() {
			pool.Close()
			_ = log.Sync()
		},
	}, nil
}

func (a *App) Close() {
	if a == nil || a.close == nil {
		return
	}
	a.close()
}

type sourceReconfigurer struct {
	client *labelstudio.Client
}

func (r *sourceReconfigurer) Configure(cfg config.SourceConfig) {
	r.client.Configure(sourceClientConfig(cfg))
}

func sourceClientConfig(cfg config.SourceConfig) labelstudio.Config {
	projects := make(map[entities.TaskCategory]int, len(cfg.ProjectIDs))
	for name, id := range cfg.ProjectIDs {
		category, err := entities.ParseCategory(name)
		if err != nil {
			continue
		}
		projects[category] = id
	}
	return labelstudio.Config{
		BaseURL:         cfg.BaseURL,
		APIToken:        cfg.APIToken,
		ProjectIDs:      projects,
		RequestTimeout:  cfg.RequestTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
		ProbeTimeout:    cfg.ProbeTimeout,
		MaxAttempts:     cfg.MaxAttempts,
		RetryBackoff:    cfg.RetryBackoff,
		OfflineFallback: cfg.OfflineFallback,
	}
}

func rewardTable(rewards map[string]float64) map[entities.TaskCategory]decimal.Decimal {
	table := make(map[entities.TaskCategory]decimal.Decimal, len(rewards))
	for name, amount := range rewards {
		category, err := entities.ParseCategory(name)
		if err != nil {
			continue
		}
		table[category] = decimal.NewFromFloat(amount)
	}
	return table
}

func refreshCategories(names []string) []entities.TaskCategory {
	categories := make([]entities.TaskCategory, 0, len(names))
	for _, name := range names {
		category, err := entities.ParseCategory(name)
		if err != nil {
			continue
		}
		categories = append(categories, category)
	}
	return categories
}
