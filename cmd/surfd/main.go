// Command surfd runs the surf agent service: an HTTP surface over a
// browser-automation workflow that plans, acts, and self-heals its way
// through a natural-language objective on a target site.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/surf/pkg/agent"
	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/jobs"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/llm/anthropic"
	"github.com/entrhq/surf/pkg/llm/openai"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/search"
	"github.com/entrhq/surf/pkg/server"
	"github.com/entrhq/surf/pkg/status"
	"github.com/entrhq/surf/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "surfd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	log, logErr := logging.NewLogger("surfd")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "surfd: file logging unavailable: %v\n", logErr)
	}
	defer log.Close()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	broker := status.NewBroker()
	results := store.NewStore(cfg.ResultsDir)

	engineOpts := []agent.EngineOption{
		agent.WithStatus(broker.Push),
		agent.WithRecursionLimit(cfg.RecursionLimit),
	}
	if tavily := search.NewTavilyClient(cfg.TavilyAPIKey); tavily != nil {
		engineOpts = append(engineOpts, agent.WithSearch(tavily))
	} else {
		log.Warnf("TAVILY_API_KEY not set; research capability disabled")
	}
	engine := agent.NewEngine(registry, log, engineOpts...)

	browsers, err := browser.NewManager(browser.ManagerConfig{
		ScreenshotsDir: cfg.ScreenshotsDir,
		Viewport:       browser.Viewport{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
		BlockedURLs:    cfg.BlockedURLs,
	})
	if err != nil {
		return err
	}
	log.Infof("initializing browser runtime")
	if err := browsers.Initialize(); err != nil {
		return err
	}
	defer browsers.Shutdown()

	runner := jobs.NewRunner(engine, browsers, broker, results, log, cfg.MaxSteps)
	api := server.NewServer(runner, broker, results, cfg.ScreenshotsDir)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("surfd listening on :%s", cfg.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Infof("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

// buildRegistry registers every provider with configured credentials. Groq
// rides the OpenAI-compatible provider with a base URL override and vision
// disabled.
func buildRegistry(cfg config.Config, log *logging.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	if cfg.OpenAIAPIKey != "" {
		p, err := openai.NewProvider(cfg.OpenAIAPIKey, "", openai.WithModel(cfg.OpenAIModel))
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		registry.Register("openai", p)
	}

	if cfg.GroqAPIKey != "" {
		p, err := openai.NewProvider(cfg.GroqAPIKey, cfg.GroqBaseURL,
			openai.WithModel(cfg.GroqModel),
			openai.WithoutVision())
		if err != nil {
			return nil, fmt.Errorf("groq provider: %w", err)
		}
		registry.Register("groq", p)
	}

	if cfg.AnthropicAPIKey != "" {
		p, err := anthropic.NewProvider(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		registry.Register("anthropic", p)
	}

	for _, id := range []string{"openai", "groq", "anthropic"} {
		if registry.Has(id) {
			log.Infof("llm provider registered: %s", id)
		}
	}
	if !registry.Has("openai") && !registry.Has("groq") && !registry.Has("anthropic") {
		return nil, fmt.Errorf("no LLM provider configured: set OPENAI_API_KEY, GROQ_API_KEY, or ANTHROPIC_API_KEY")
	}

	return registry, nil
}
