package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/simaogato/fundlens-backend/internal/app"
	"github.com/simaogato/fundlens-backend/internal/cli"
	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.NewWithWriter(logger.Config{Level: "info", Pretty: true}, os.Stderr)
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Diagnostics go to stderr so tables on stdout stay clean
	log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Pretty: true}, os.Stderr)
	logger.SetGlobalLogger(log)

	ctx := context.Background()

	repos, err := app.OpenRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to connect to database")
	}

	env := &cli.Env{
		Repos:    repos,
		Services: app.NewServices(repos, cfg.Engine, log),
		Out:      os.Stdout,
		Err:      os.Stderr,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "")
	}

	flag.Parse()
	status := commander.Execute(ctx)

	repos.Close()
	os.Exit(int(status))
}
