package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/cvs"
	"github.com/antonpme/CV-Optimizer/internal/entitlements"
	"github.com/antonpme/CV-Optimizer/internal/generatedcvs"
	"github.com/antonpme/CV-Optimizer/internal/jobs"
	"github.com/antonpme/CV-Optimizer/internal/llm"
	openai "github.com/antonpme/CV-Optimizer/internal/llm/openai"
	"github.com/antonpme/CV-Optimizer/internal/profiles"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/services/health"
	"github.com/antonpme/CV-Optimizer/internal/shared/config"
	"github.com/antonpme/CV-Optimizer/internal/shared/server"
	"github.com/antonpme/CV-Optimizer/internal/shared/storage/db"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
	"github.com/antonpme/CV-Optimizer/internal/tailoring"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Counter      usage.Counter
	LLM          llm.Client
	RunsRepo     runs.Repo
	Entitlements *entitlements.Resolver
	Usage        *usage.Service
	Profiles     *profiles.Service
	CVs          *cvs.Service
	Jobs         *jobs.Service
	Generated    *generatedcvs.Service
	Tailoring    *tailoring.Service
	Health       *health.Service
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if cfg.Limits == (config.LimitDefaults{}) {
		cfg.Limits = config.BuiltinLimitDefaults()
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	counter, err := buildCounter(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Counter: counter,
		LLM:     llmClient,
		Health:  health.NewService(),
	}
	buildServices(app)

	if sqlDB != nil {
		app.Health.Register("database", health.CheckerFunc(sqlDB.PingContext))
	}
	if rc, ok := counter.(*usage.RedisCounter); ok {
		app.Health.Register("redis", rc)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Health: app.Health,
		Handlers: []server.RouteRegistrar{
			profiles.NewHandler(app.Profiles),
			cvs.NewHandler(app.CVs),
			jobs.NewHandler(app.Jobs),
			tailoring.NewHandler(app.Tailoring),
			generatedcvs.NewHandler(app.Generated),
			usage.NewHandler(app.Usage, app.RunsRepo),
			entitlements.NewHandler(app.Entitlements),
		},
	})

	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() error {
	if rc, ok := a.Counter.(*usage.RedisCounter); ok {
		_ = rc.Client.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// buildCounter picks the shared window counter. A nil counter sends every
// window check to the run ledger.
func buildCounter(cfg config.Config) (usage.Counter, error) {
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		rc, err := usage.NewRedisCounter(url)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	if cfg.RateLimitBackend == "memory" {
		return usage.NewMemoryCounter(), nil
	}
	return nil, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm.placeholder", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
	})
}

func buildServices(app *App) {
	var (
		profileRepo     profiles.Repo
		cvRepo          cvs.Repo
		jobRepo         jobs.Repo
		generatedRepo   generatedcvs.Repo
		runRepo         runs.Repo
		entitlementRepo entitlements.Repo
	)
	if app.DB != nil {
		profileRepo = &profiles.PGRepo{DB: app.DB}
		cvRepo = &cvs.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		generatedRepo = &generatedcvs.PGRepo{DB: app.DB}
		runRepo = &runs.PGRepo{DB: app.DB}
		entitlementRepo = &entitlements.PGRepo{DB: app.DB}
	} else {
		profileRepo = profiles.NewMemoryRepo()
		cvRepo = cvs.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		generatedRepo = generatedcvs.NewMemoryRepo()
		runRepo = runs.NewMemoryRepo()
		entitlementRepo = entitlements.NewMemoryRepo()
	}

	limits := app.Config.Limits
	writer := &runs.Writer{
		Repo:     runRepo,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
		Pricing:  runs.DefaultPricing,
	}
	resolver := entitlements.NewResolver(entitlementRepo, limits)
	usageSvc := usage.NewService(resolver, app.Counter, runRepo, limits)

	profileSvc := &profiles.Service{Repo: profileRepo}
	cvSvc := &cvs.Service{
		Repo:     cvRepo,
		Profiles: profileSvc,
		Gate:     usageSvc,
		LLM:      app.LLM,
		Runs:     writer,
	}
	jobSvc := &jobs.Service{Repo: jobRepo}
	generatedSvc := &generatedcvs.Service{
		Repo:         generatedRepo,
		Jobs:         jobRepo,
		Entitlements: resolver,
	}
	tailoringSvc := &tailoring.Service{
		CVs:       cvSvc,
		Jobs:      jobSvc,
		Profiles:  profileSvc,
		Gate:      usageSvc,
		LLM:       app.LLM,
		Documents: generatedSvc,
		Runs:      writer,
	}

	app.RunsRepo = runRepo
	app.Entitlements = resolver
	app.Usage = usageSvc
	app.Profiles = profileSvc
	app.CVs = cvSvc
	app.Jobs = jobSvc
	app.Generated = generatedSvc
	app.Tailoring = tailoringSvc
}
