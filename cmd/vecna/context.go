package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vecna/internal/api"
	"vecna/internal/catalog"
	"vecna/internal/config"
	"vecna/internal/logging"
	"vecna/internal/services/llm"
	"vecna/internal/services/rulebook"
	"vecna/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// application holds everything a write command needs.
type application struct {
	cfg          *config.Config
	store        *catalog.Store
	logger       *slog.Logger
	games        *api.GameService
	advancer     *workflow.Advancer
	orchestrator *workflow.Orchestrator
	reclaimer    *workflow.Reclaimer
}

func newApplication(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *application {
	parser := rulebook.NewParserFromConfig(cfg, store, logger)
	generator := llm.NewGeneratorFromConfig(cfg, store, logger)
	advancer := workflow.NewAdvancer(store, parser, generator, logger)
	return &application{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		games:        api.NewGameService(store),
		advancer:     advancer,
		orchestrator: workflow.NewOrchestrator(store, advancer, logger),
		reclaimer:    workflow.NewReclaimer(store, logger, cfg.InFlightTimeout(), cfg.ReclaimInterval(), advancer.InProgress),
	}
}

func (c *commandContext) withApp(fn func(*application) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return fmt.Errorf("open game store: %w", err)
	}
	defer store.Close()
	return fn(newApplication(cfg, store, logger))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
