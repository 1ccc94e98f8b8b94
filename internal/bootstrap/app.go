package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"notewise/internal/ai"
	"notewise/internal/app"
	"notewise/internal/cache"
	"notewise/internal/config"
	"notewise/internal/extract"
	"notewise/internal/pkg/chunker"
	"notewise/internal/platform/database"
	"notewise/internal/platform/filestore"
	"notewise/internal/platform/logger"
	rabbitmqClient "notewise/internal/platform/rabbitmq"
	redisClient "notewise/internal/platform/redis"
	"notewise/internal/repository"
	"notewise/internal/worker"
)

type Services struct {
	Subjects      *app.SubjectService
	Documents     *app.DocumentService
	Answers       *app.AnswerService
	StudySets     *app.StudySetService
	Conversations *app.ConversationService
}

type App struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	Runner         *worker.TaskRunner
	MessageWorker  *worker.MessagePersistWorker
	DocumentWorker *worker.DocumentProcessWorker
	Services       Services

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
		return err
	}
	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL); err != nil {
		return err
	}

	files, err := filestore.NewLocal(cfg.Storage.Root)
	if err != nil {
		return err
	}
	textChunker, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init chunker failed: %w", err)
	}
	taskTimeout := time.Duration(cfg.Ingest.TaskTimeoutSeconds) * time.Second
	if a.Runner, err = worker.NewTaskRunner(cfg.Ingest.DetachedPool, taskTimeout, a.Logger); err != nil {
		return err
	}

	llm := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	historyCache := cache.NewHistoryCache(
		a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	subjectRepo := repository.NewSubjectRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	messageRepo := repository.NewChatMessageRepository(db)
	assembler := app.NewContextAssembler(chunkRepo, documentRepo)

	a.Services = Services{
		Subjects: app.NewSubjectService(subjectRepo, files, historyCache, cfg.Session.MaxSubjects, a.Logger),
		Documents: app.NewDocumentService(
			subjectRepo, documentRepo, chunkRepo, files,
			extract.New(llm, cfg.LLM.ExtractMaxTokens, a.Logger),
			textChunker,
			rabbitmqClient.NewDocumentJobPublisher(a.MQConn, cfg.RabbitMQ.DocumentProcessQueue),
			a.Runner,
			cfg.Storage.MaxUploadSize,
			a.Logger,
		),
		Answers: app.NewAnswerService(
			subjectRepo, assembler, llm,
			rabbitmqClient.NewMessagePublisher(a.MQConn, cfg.RabbitMQ.MessagePersistQueue),
			historyCache,
			a.Runner,
			app.Temperatures{Chat: cfg.LLM.ChatTemperature, Voice: cfg.LLM.VoiceTemperature},
			cfg.LLM.MaxHistoryTurns,
			a.Logger,
		),
		StudySets:     app.NewStudySetService(subjectRepo, assembler, llm, cfg.LLM.StudyTemperature, a.Logger),
		Conversations: app.NewConversationService(subjectRepo, messageRepo, historyCache),
	}

	a.MessageWorker = worker.NewMessagePersistWorker(a.MQConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue, a.Logger)
	if err := a.MessageWorker.Start(ctx); err != nil {
		return fmt.Errorf("start message worker failed: %w", err)
	}
	a.DocumentWorker = worker.NewDocumentProcessWorker(
		a.MQConn,
		a.Services.Documents,
		cfg.RabbitMQ.DocumentProcessQueue,
		cfg.Ingest.WorkerPool,
		taskTimeout,
		a.Logger,
	)
	if err := a.DocumentWorker.Start(ctx); err != nil {
		return fmt.Errorf("start document worker failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.DocumentWorker != nil {
		a.DocumentWorker.Close()
	}
	if a.Runner != nil {
		a.Runner.Close(5 * time.Second)
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		a.Logger.Sync()
	}
	return closeErr
}
