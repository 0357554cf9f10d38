package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hierarag/internal/agent"
	"hierarag/internal/ai"
	"hierarag/internal/app"
	"hierarag/internal/chunking"
	"hierarag/internal/config"
	"hierarag/internal/journal"
	"hierarag/internal/model"
	"hierarag/internal/parentstore"
	mysqlClient "hierarag/internal/platform/mysql"
	rabbitmqClient "hierarag/internal/platform/rabbitmq"
	redisClient "hierarag/internal/platform/redis"
	sqliteClient "hierarag/internal/platform/sqlite"
	"hierarag/internal/repository"
	"hierarag/internal/vectorindex"
	"hierarag/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	MySQL  *gorm.DB
	SQLite *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Parents   parentstore.Store
	Index     *vectorindex.Index
	Ingest    *app.IngestService
	Simple    *app.SimpleRetriever
	Agentic   *app.AgentService
	Publisher *rabbitmqClient.IngestPublisher

	IngestWorker *worker.IngestWorker

	StartedAt time.Time
}

type Option func(*options)

type options struct {
	db          *gorm.DB
	redis       *redis.Client
	chat        agent.ChatModel
	completer   app.Completer
	embedder    vectorindex.Embedder
	skipBroker bool
}

// WithDB uses an already opened database for every relational store
// instead of dialing MySQL or opening the sqlite file.
func WithDB(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// WithRedis uses an existing client for the ingest journal.
func WithRedis(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// WithModels replaces the OpenAI-compatible chat and embedding clients.
func WithModels(chat agent.ChatModel, completer app.Completer, embedder vectorindex.Embedder) Option {
	return func(o *options) {
		o.chat = chat
		o.completer = completer
		o.embedder = embedder
	}
}

// WithoutBroker skips RabbitMQ even when enabled in config. Used by the CLI.
func WithoutBroker() Option {
	return func(o *options) { o.skipBroker = true }
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	if err := a.connect(ctx, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.buildStores(); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.buildServices(o)
	return a, nil
}

func (a *App) connect(ctx context.Context, o options) error {
	cfg := a.Config
	if cfg.UsesMySQL() {
		db := o.db
		if db == nil {
			var err error
			if db, err = mysqlClient.New(ctx, cfg.MySQLDSN()); err != nil {
				return err
			}
		}
		if err := migrate(db); err != nil {
			return err
		}
		a.MySQL = db
	}
	if cfg.UsesSQLite() {
		db := o.db
		if db == nil {
			var err error
			if db, err = sqliteClient.New(cfg.Storage.SQLitePath); err != nil {
				return err
			}
		}
		if err := migrate(db); err != nil {
			return err
		}
		a.SQLite = db
	}

	switch {
	case o.redis != nil:
		a.Redis = o.redis
	case cfg.Redis.Enabled:
		client, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.Redis = client
	}

	if cfg.RabbitMQ.Enabled && !o.skipBroker {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = conn
	}
	return nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ParentChunkRecord{}, &model.VectorPoint{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

// dbFor returns the connection backing a store kind.
func (a *App) dbFor(kind string) *gorm.DB {
	if kind == config.StoreMySQL {
		return a.MySQL
	}
	return a.SQLite
}

func (a *App) buildStores() error {
	cfg := a.Config.Storage
	switch cfg.ParentStore {
	case config.StoreMySQL, config.StoreSQLite:
		a.Parents = repository.NewParentChunkRepository(a.dbFor(cfg.ParentStore))
	default:
		store, err := parentstore.NewFileStore(cfg.ParentStoreDir)
		if err != nil {
			return err
		}
		a.Parents = store
	}
	return nil
}

func (a *App) buildServices(o options) {
	cfg := a.Config
	client := ai.NewOpenAICompatibleClient(cfg.LLMTimeout())
	chatModel := ai.NewChatModel(client, ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	var (
		chat      agent.ChatModel      = chatModel
		completer app.Completer        = chatModel
		embedder  vectorindex.Embedder = ai.NewEmbedder(client, ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		})
	)
	if o.chat != nil {
		chat = o.chat
	}
	if o.completer != nil {
		completer = o.completer
	}
	if o.embedder != nil {
		embedder = o.embedder
	}

	var points vectorindex.PointStore = vectorindex.NewMemoryStore()
	if cfg.Storage.VectorStore != config.StoreMemory {
		points = repository.NewVectorPointRepository(a.dbFor(cfg.Storage.VectorStore))
	}
	a.Index = vectorindex.New(embedder, points, cfg.Storage.Collection, vectorindex.WithBatchSize(cfg.LLM.EmbedBatchSize))

	var j journal.Journal = journal.NewMemoryJournal()
	if a.Redis != nil {
		j = journal.NewRedisJournal(a.Redis, cfg.JournalTTL())
	}
	splitter := chunking.NewSplitter(
		chunking.WithChunkSize(cfg.Chunking.ChunkSize),
		chunking.WithChunkOverlap(cfg.Chunking.ChunkOverlap),
	)
	a.Ingest = app.NewIngestService(splitter, a.Parents, a.Index, j, a.Logger)
	a.Simple = app.NewSimpleRetriever(a.Index, completer, cfg.Retrieval.SimpleTopK)

	registry := agent.NewRegistry(
		agent.NewSearchChildChunksTool(a.Index, cfg.Retrieval.AgentTopK),
		agent.NewRetrieveParentChunksTool(a.Parents),
	)
	a.Agentic = app.NewAgentService(agent.New(chat, registry,
		agent.WithMaxRounds(cfg.Retrieval.AgentMaxRounds),
		agent.WithEnforceSearchFirst(cfg.Retrieval.EnforceSearchFirst),
		agent.WithLogger(a.Logger),
	))

	if a.MQConn != nil {
		a.Publisher = rabbitmqClient.NewIngestPublisher(a.MQConn, cfg.RabbitMQ.IngestQueue)
		a.IngestWorker = worker.NewIngestWorker(a.MQConn, a.Ingest, cfg.RabbitMQ.IngestQueue, a.Logger)
	}
}

// StartWorker starts consuming queued ingest jobs if a broker is connected.
func (a *App) StartWorker(ctx context.Context) error {
	if a.IngestWorker == nil {
		return nil
	}
	if err := a.IngestWorker.Start(ctx); err != nil {
		return fmt.Errorf("start ingest worker failed: %w", err)
	}
	return nil
}

// HealthChecks returns a probe per connected dependency.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.MySQL != nil {
		checks["mysql"] = func(ctx context.Context) error { return mysqlClient.Ping(ctx, a.MySQL) }
	}
	if a.SQLite != nil {
		checks["sqlite"] = func(ctx context.Context) error { return a.SQLite.WithContext(ctx).Exec("SELECT 1").Error }
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx, a.Redis) }
	}
	if a.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error { return rabbitmqClient.Ping(a.MQConn) }
	}
	return checks
}

func (a *App) Close() error {
	var errs []error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, db := range []*gorm.DB{a.MySQL, a.SQLite} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
