// Command haikumesh runs the haiku multi-agent demo.
//
// Usage:
//
//	haikumesh serve haiku
//	haikumesh serve validator --port 8001
//	haikumesh store --db haikus.db
//	haikumesh generate "autumn rain"
//	haikumesh validate "An old silent pond..."
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/agent"
	"github.com/haikumesh/haikumesh/pkg/agent/haiku"
	"github.com/haikumesh/haikumesh/pkg/agent/utilities"
	"github.com/haikumesh/haikumesh/pkg/agent/validator"
	"github.com/haikumesh/haikumesh/pkg/config"
	"github.com/haikumesh/haikumesh/pkg/logger"
	"github.com/haikumesh/haikumesh/pkg/model/gemini"
	"github.com/haikumesh/haikumesh/pkg/observability"
	"github.com/haikumesh/haikumesh/pkg/store"
	storemcp "github.com/haikumesh/haikumesh/pkg/store/mcp"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start an A2A agent server."`
	Store    StoreCmd    `cmd:"" help:"Start the MCP haiku store server."`
	Generate GenerateCmd `cmd:"" help:"Generate a haiku for a topic."`
	Validate ValidateCmd `cmd:"" help:"Validate a haiku."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("haikumesh version %s\n", version)
	return nil
}

// ServeCmd starts one of the agents as an A2A server.
type ServeCmd struct {
	Agent   string `arg:"" enum:"haiku,validator,utilities" help:"Agent to serve (haiku, validator, utilities)."`
	Host    string `help:"Host to bind." default:""`
	Port    int    `help:"Port to listen on (default depends on agent)."`
	Observe bool   `help:"Enable Prometheus metrics at /metrics."`
}

func (c *ServeCmd) Run() error {
	ctx, cancel := shutdownContext()
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.RequireGemini(); err != nil {
		return err
	}

	llm, err := gemini.New(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		MaxTokens:   cfg.Gemini.MaxTokens,
	})
	if err != nil {
		return err
	}
	defer llm.Close()

	var a *agent.Agent
	switch c.Agent {
	case "haiku":
		a, err = haiku.New(haiku.Config{
			Model:            llm,
			RemoteValidation: cfg.RemoteValidation,
			ValidatorURL:     cfg.Validator.BaseURL,
			StoreURL:         cfg.Store.URL,
		})
	case "validator":
		a, err = validator.New(llm)
	case "utilities":
		a, err = utilities.New(llm)
	}
	if err != nil {
		return err
	}

	port := c.port(cfg)

	serverCfg := &a2a.ServerConfig{Host: c.Host, Port: port}

	var metricsHandler http.Handler
	if c.Observe {
		metrics, err := observability.InitMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metricsHandler = metrics.Handler()
		serverCfg.Middleware = append(serverCfg.Middleware, observability.Middleware(a.Card().Name))
	}

	srv, err := a2a.NewServer(a, serverCfg)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Mount("/", srv.Handler())

	addr := fmt.Sprintf("%s:%d", c.Host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("Starting agent server", "agent", a.Card().Name, "addr", addr)
	fmt.Printf("Agent %s listening on http://%s\n", a.Card().Name, addr)
	fmt.Printf("   Agent card: http://%s%s\n", addr, a2a.AgentCardPath)
	if c.Observe {
		fmt.Printf("   Metrics:    http://%s/metrics\n", addr)
	}
	fmt.Println("Press Ctrl+C to stop")

	return serveUntilDone(ctx, httpServer)
}

// port resolves the listen port: flag, then PORT env, then a per-agent
// default matching the demo layout.
func (c *ServeCmd) port(cfg *config.Config) int {
	if c.Port != 0 {
		return c.Port
	}
	if os.Getenv(config.EnvPort) != "" {
		return cfg.Port
	}
	switch c.Agent {
	case "validator":
		return 8001
	case "utilities":
		return 8002
	default:
		return 8000
	}
}

// StoreCmd starts the MCP haiku store server.
type StoreCmd struct {
	Addr string `help:"Address to listen on." default:":8075"`
	DB   string `help:"Path to the sqlite database."`
	Path string `help:"HTTP endpoint path." default:"/mcp"`
}

func (c *StoreCmd) Run() error {
	ctx, cancel := shutdownContext()
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	dbPath := c.DB
	if dbPath == "" {
		dbPath = cfg.Store.DBPath
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := storemcp.NewServer(st, storemcp.ServerConfig{
		Addr:    c.Addr,
		Version: "1.0.0",
		Path:    c.Path,
	})

	slog.Info("Starting MCP haiku store", "addr", c.Addr, "db", dbPath)
	fmt.Printf("Haiku store listening on http://%s%s (db: %s)\n", c.Addr, c.Path, dbPath)
	fmt.Println("Press Ctrl+C to stop")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// GenerateCmd generates a haiku without starting a server.
type GenerateCmd struct {
	Topic string `arg:"" help:"Topic or idea for the haiku."`
}

func (c *GenerateCmd) Run() error {
	ctx, cancel := shutdownContext()
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.RequireGemini(); err != nil {
		return err
	}

	llm, err := gemini.New(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		MaxTokens:   cfg.Gemini.MaxTokens,
	})
	if err != nil {
		return err
	}
	defer llm.Close()

	a, err := haiku.New(haiku.Config{
		Model:            llm,
		RemoteValidation: cfg.RemoteValidation,
		ValidatorURL:     cfg.Validator.BaseURL,
		StoreURL:         cfg.Store.URL,
	})
	if err != nil {
		return err
	}

	out, err := a.Execute(ctx, fmt.Sprintf("Write a haiku about: %s", c.Topic))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// ValidateCmd validates a haiku, locally or against a remote validator.
type ValidateCmd struct {
	Haiku  string `arg:"" help:"The haiku text to validate."`
	Remote bool   `help:"Validate against the remote validator agent."`
}

func (c *ValidateCmd) Run() error {
	ctx, cancel := shutdownContext()
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	var verdictText string
	if c.Remote || cfg.RemoteValidation {
		if cfg.Validator.BaseURL == "" {
			return fmt.Errorf("%s environment variable is not set", config.EnvValidatorURL)
		}
		result := a2a.NewClient(nil).Call(ctx, cfg.Validator.BaseURL, c.Haiku)
		if result.Status != a2a.StatusSuccess {
			return fmt.Errorf("validation failed: %s", result.Message)
		}
		verdictText = result.Content
	} else {
		if err := cfg.RequireGemini(); err != nil {
			return err
		}
		llm, err := gemini.New(gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
		})
		if err != nil {
			return err
		}
		defer llm.Close()

		a, err := validator.New(llm)
		if err != nil {
			return err
		}
		verdictText, err = a.Execute(ctx, c.Haiku)
		if err != nil {
			return err
		}
	}

	verdict, err := validator.ParseVerdict(verdictText)
	if err != nil {
		return err
	}

	status := "INVALID"
	if verdict.IsValid {
		status = "VALID"
	}
	fmt.Printf("%s (score %d)\n%s\n", status, verdict.Score, verdict.Feedback)
	return nil
}

// shutdownContext returns a context cancelled on SIGINT or SIGTERM.
func shutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// serveUntilDone runs the HTTP server until it fails or ctx is
// cancelled, then drains in-flight requests.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("haikumesh"),
		kong.Description("haikumesh - a multi-agent haiku demo over A2A and MCP"),
		kong.UsageOnError(),
	)

	logFile := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		f, c, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logFile, cleanup = f, c
		defer cleanup()
	}
	logger.Init(logger.ParseLevel(cli.LogLevel), logFile, cli.LogFormat)

	if err := kctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
