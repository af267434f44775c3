package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/config"
	"github.com/AspiringPianist/geni-backend/internal/delivery/httpd"
	"github.com/AspiringPianist/geni-backend/internal/embedding"
	"github.com/AspiringPianist/geni-backend/internal/genai"
	"github.com/AspiringPianist/geni-backend/internal/repository"
	"github.com/AspiringPianist/geni-backend/internal/service"
	"github.com/AspiringPianist/geni-backend/internal/storage"
	"github.com/AspiringPianist/geni-backend/internal/vectorstore"
	"github.com/AspiringPianist/geni-backend/internal/worker"
	"github.com/AspiringPianist/geni-backend/internal/worker/queue"
)

type App struct {
	server        *http.Server
	logger        zerolog.Logger
	config        *config.Config
	db            *sql.DB
	index         vectorstore.Index
	gradingWorker worker.GradingWorker
	rabbitMQRepo  repository.RabbitMQRepository
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	submissionRepo := repository.NewSubmissionRepository(db, log)
	questionRepo := repository.NewQuestionRepository(db, log)

	embedder, err := embedding.NewOpenAIEmbedder(cfg.Embedding.Model, cfg.Embedding.Timeout)
	if err != nil {
		return nil, err
	}

	// The similarity index is best-effort everywhere it is used, so a
	// broken index file degrades the service instead of stopping it.
	var index vectorstore.Index
	sqliteIndex, err := vectorstore.NewSQLiteIndex(cfg.VectorIndex.Path, embedding.IndexDimension, log)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.VectorIndex.Path).Msg("Vector index unavailable, continuing without it")
	} else {
		index = sqliteIndex
	}

	var evaluator genai.Evaluator
	if cfg.GenAI.Enabled {
		openAIEvaluator, err := genai.NewOpenAIEvaluator(cfg.GenAI.Model, cfg.GenAI.Timeout)
		if err != nil {
			return nil, err
		}
		evaluator = openAIEvaluator
	}

	var blobStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		minioStore, err := storage.NewMinIOStorage(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			cfg.Storage.UseSSL,
			log,
		)
		if err != nil {
			return nil, err
		}
		blobStore = minioStore
	}

	var rabbitMQRepo repository.RabbitMQRepository
	var publisher queue.RabbitMQPublisher
	var consumer queue.RabbitMQConsumer
	if cfg.RabbitMQ.Enabled {
		rabbitMQRepo, err = repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
		if err != nil {
			return nil, err
		}

		if err := rabbitMQRepo.SetupQueue(
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.RoutingKey,
		); err != nil {
			return nil, err
		}

		publisher = queue.NewRabbitMQPublisher(rabbitMQRepo.Channel(), log)
		consumer = queue.NewRabbitMQConsumer(
			rabbitMQRepo.Channel(),
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.ConsumerTag,
			log,
		)
	}

	gradingService := service.NewGradingService(
		submissionRepo,
		questionRepo,
		embedder,
		index,
		evaluator,
		publisher,
		log,
		service.GradingConfig{Exchange: cfg.RabbitMQ.Exchange},
	)

	submissionService := service.NewSubmissionService(
		submissionRepo,
		questionRepo,
		embedder,
		index,
		blobStore,
		publisher,
		log,
		service.SubmissionConfig{
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
		},
	)

	var gradingWorker worker.GradingWorker
	if consumer != nil {
		workerPool := worker.NewWorkerPool(cfg.Grading.MaxWorkers, log)
		gradingWorker = worker.NewGradingWorker(workerPool, consumer, gradingService, log)
	}

	handler := httpd.NewHandler(gradingService, submissionService, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:        server,
		logger:        log,
		config:        cfg,
		db:            db,
		index:         index,
		gradingWorker: gradingWorker,
		rabbitMQRepo:  rabbitMQRepo,
	}, nil
}

func (a *App) Run() error {
	if a.gradingWorker != nil {
		if err := a.gradingWorker.Start(context.Background()); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start grading worker")
			return err
		}
	}

	a.logger.Info().Msgf("Starting grading service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down grading service...")

	if a.gradingWorker != nil {
		if err := a.gradingWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop grading worker")
		}
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close vector index")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("Grading service stopped")
	return nil
}
