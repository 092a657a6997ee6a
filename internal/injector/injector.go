//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/verdantlab/meadow/internal/core/config"
	"github.com/verdantlab/meadow/internal/core/engine"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/internal/core/snapshot"
	"github.com/verdantlab/meadow/internal/server"
)

func InitializeApp(path config.Path) (*App, error) {
	wire.Build(
		config.Load,
		ProvideLogger,
		wire.Bind(new(log.Log), new(*log.Logger)),
		ProvideRuleSet,
		ProvideWorld,
		sim.NewQueue,
		sim.NewScheduler,
		snapshot.NewPublisher,
		engine.New,
		server.NewFeed,
		NewApp,
	)
	return nil, nil
}
