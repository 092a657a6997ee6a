package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/verdantlab/meadow/internal/core/config"
	"github.com/verdantlab/meadow/internal/injector"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath    = flag.String("config", "", "path to the configuration file (defaults apply when empty)")
		listenAddr = flag.String("listen", "", "override the feed listen address")
		cpuProfile = flag.Bool("profile", false, "write a CPU profile to the working directory")
	)
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	app, err := injector.InitializeApp(config.Path(*cfgPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		return 1
	}
	app.Feed.SetAddr(*listenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Engine.Run(ctx)
	})
	g.Go(func() error {
		return app.Feed.Serve(ctx)
	})
	if app.Config.Watch && *cfgPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, config.Path(*cfgPath), app.Engine.Queue(), app.Logger)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown with error:", err)
		return 1
	}
	return 0
}
