package injector

import (
	"github.com/verdantlab/meadow/internal/core/config"
	"github.com/verdantlab/meadow/internal/core/engine"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/internal/server"
)

// App bundles the wired process: one simulation engine and its feed.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Engine *engine.Engine
	Feed   *server.Feed
}

func NewApp(cfg *config.Config, logger *log.Logger, eng *engine.Engine, feed *server.Feed) *App {
	return &App{Config: cfg, Logger: logger, Engine: eng, Feed: feed}
}

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel))
}

func ProvideRuleSet(cfg *config.Config, logger *log.Logger) (*sim.RuleSet, error) {
	return cfg.RuleSet(logger)
}

func ProvideWorld(cfg *config.Config, rules *sim.RuleSet) (*sim.World, error) {
	return cfg.BuildWorld(rules)
}
