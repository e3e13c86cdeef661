package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"
	"vtopassist-backend/lib/configuration"
	"vtopassist-backend/lib/llm"
	"vtopassist-backend/lib/scrapers/vtop"
	"vtopassist-backend/lib/sqliteutil"
	"vtopassist-backend/lib/telemetry"
	"vtopassist-backend/lib/util/serviceutil"
	"vtopassist-backend/services/chat"
	"vtopassist-backend/services/chat/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

type DemoConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Port             int        `json:"port"`
	Database         string     `json:"database"`
	CaptchaSolverUrl string     `json:"captcha_solver_url"`
	AllowedOrigins   []string   `json:"allowed_origins"`
	SessionTTLMins   int        `json:"session_ttl_minutes"`
	Demo             DemoConfig `json:"demo"`
}

func initTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	tel, err := telemetry.SetupFromEnv(ctx, "vtop-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}

// geminiKeys reads the rotating pool from GEMINI_KEYS (comma separated)
// and the lone fallback from GEMINI_API_KEY.
func geminiKeys() (keys []string, fallback string) {
	for _, key := range strings.Split(os.Getenv("GEMINI_KEYS"), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, os.Getenv("GEMINI_API_KEY")
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("load .env", err)
	}

	initTelemetry(ctx, *verbose)

	cfg, err := configuration.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Database == "" {
		cfg.Database = "chat.db"
	}

	keys, fallback := geminiKeys()
	if len(keys) == 0 && fallback == "" {
		serviceutil.Fatal("read gemini keys", errors.New("neither GEMINI_KEYS nor GEMINI_API_KEY is set"))
	}
	scheduler := llm.NewScheduler(llm.SchedulerOptions{
		Keys:        keys,
		FallbackKey: fallback,
	})
	slog.InfoContext(ctx, "gemini key pool", "keys", len(keys), "fallback", fallback != "")

	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}

	if cfg.CaptchaSolverUrl == "" {
		serviceutil.Fatal("read config", errors.New("captcha_solver_url is not set; logins cannot work without a solver"))
	}
	solver := vtop.NewHttpSolver(cfg.CaptchaSolverUrl)

	if cfg.Demo.Username == "" {
		cfg.Demo.Username = os.Getenv("VTOP_USERNAME")
		cfg.Demo.Password = os.Getenv("VTOP_PASSWORD")
	}

	service := chat.NewService(database, llm.NewClient(llm.ClientOptions{}), scheduler, chat.Options{
		Solver: solver,
		Demo: chat.Credentials{
			Username: cfg.Demo.Username,
			Password: cfg.Demo.Password,
			Campus:   vtop.CampusVellore,
		},
		SessionIdleTTL: time.Duration(cfg.SessionTTLMins) * time.Minute,
	})

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	chat.NewServer(service).Register(router)

	go serviceutil.StartHttpServer(cfg.Port, router)
	<-ctx.Done()
}
