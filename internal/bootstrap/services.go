package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/srijeethT/cytomind/config"
	"github.com/srijeethT/cytomind/internal/adapters/analysisrunner"
	"github.com/srijeethT/cytomind/internal/adapters/inference"
	"github.com/srijeethT/cytomind/internal/adapters/renderer"
	"github.com/srijeethT/cytomind/internal/data"
	"github.com/srijeethT/cytomind/internal/domain/analysis"
	"github.com/srijeethT/cytomind/internal/domain/classify"
	"github.com/srijeethT/cytomind/internal/service"
)

// ServiceContainer holds the constructed services and shared collaborators.
type ServiceContainer struct {
	Analysis *service.AnalysisService
	Reports  *service.ReportService
	Runner   *analysisrunner.Runner
	Notifier analysis.Notifier
}

// ServicesConfig contains dependencies for service construction.
type ServicesConfig struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  *redis.Client
	Logger *slog.Logger
}

// NewServices constructs the full service graph from configuration and
// connections.
func NewServices(cfg ServicesConfig) (*ServiceContainer, error) {
	appCfg := cfg.Config
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	table, err := classify.NewClassTable(appCfg.Classifier.Classes, config.ClassDisplayNames)
	if err != nil {
		return nil, fmt.Errorf("build class table: %w", err)
	}

	predictor, err := classify.NewPredictor(classify.PredictorOptions{
		Table:            table,
		MalignantClasses: appCfg.Classifier.ItemMalignantClasses,
		TopK:             appCfg.Classifier.TopK,
		Threshold:        appCfg.Classifier.ItemMalignancyThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("build predictor: %w", err)
	}

	aggregator, err := classify.NewAggregator(classify.AggregatorOptions{
		Table:            table,
		MalignantClasses: appCfg.Classifier.BatchMalignantClasses,
		MalignantTier:    appCfg.Classifier.MalignantTierThreshold,
		SuspiciousTier:   appCfg.Classifier.SuspiciousTierThreshold,
		TopN:             appCfg.Classifier.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("build aggregator: %w", err)
	}

	classifier, err := inference.NewClient(inference.ClientOptions{
		BaseURL: appCfg.Classifier.ModelURL,
		Classes: table.Classes(),
		Timeout: appCfg.Classifier.ModelTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build inference client: %w", err)
	}

	rendererClient, err := renderer.NewClient(renderer.ClientOptions{
		BaseURL: appCfg.Classifier.RendererURL,
		Timeout: appCfg.Classifier.RendererTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build renderer client: %w", err)
	}

	jobRepo := data.NewJobRepo(cfg.DB, logger)
	reportRepo := data.NewReportRepo(cfg.DB, logger)
	patientRepo := data.NewPatientRepo(cfg.DB, logger)
	var cache *data.RedisCacheRepo
	if cfg.Redis != nil {
		cache = data.NewRedisCacheRepo(cfg.Redis, "")
	}

	notifier := analysis.NewNotifier()

	analysisSvc, err := service.NewAnalysisService(service.AnalysisServiceOptions{
		Jobs:       jobRepo,
		Classifier: classifier,
		Predictor:  predictor,
		Notifier:   notifier,
		Patients:   patientRepo,
		UploadDir:  appCfg.Storage.UploadDir,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build analysis service: %w", err)
	}

	reportOpts := service.ReportServiceOptions{
		Reports:     reportRepo,
		Renderer:    rendererClient,
		ReportsDir:  appCfg.Storage.ReportsDir,
		DocumentTTL: appCfg.Cache.DocumentTTL,
		Logger:      logger,
	}
	if cache != nil {
		reportOpts.Cache = cache
	}
	reportSvc, err := service.NewReportService(reportOpts)
	if err != nil {
		return nil, fmt.Errorf("build report service: %w", err)
	}

	runner, err := analysisrunner.NewRunner(analysisrunner.RunnerOptions{
		Jobs:         jobRepo,
		Classifier:   classifier,
		Predictor:    predictor,
		Aggregator:   aggregator,
		Reports:      reportSvc,
		Notifier:     notifier,
		Logger:       logger,
		Concurrency:  appCfg.Runner.Concurrency,
		PollInterval: appCfg.Runner.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("build analysis runner: %w", err)
	}

	return &ServiceContainer{
		Analysis: analysisSvc,
		Reports:  reportSvc,
		Runner:   runner,
		Notifier: notifier,
	}, nil
}
