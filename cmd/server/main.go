package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/fundlens-backend/internal/adapter/grpc"
	"github.com/simaogato/fundlens-backend/internal/adapter/rest"
	"github.com/simaogato/fundlens-backend/internal/app"
	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{Level: "info"})
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx := context.Background()

	// 2. Setup Database
	repos, err := app.OpenRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to connect to database")
	}
	defer repos.Close()

	// 3. Initialize Services (Use Cases)
	services := app.NewServices(repos, cfg.Engine, log)

	seeded, err := services.Seeder.Seed(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed base currencies")
	}
	log.Info().Int("funds", seeded).Msg("Base currencies seeded")

	// 4. Start gRPC Server
	interceptors := []grpclib.UnaryServerInterceptor{grpcadapter.LoggingInterceptor(log)}
	if cfg.APIToken != "" {
		interceptors = append(interceptors, grpcadapter.AuthInterceptor(cfg.APIToken))
	}
	grpcServer := grpclib.NewServer(grpclib.ChainUnaryInterceptor(interceptors...))

	grpcAdapter := grpcadapter.NewServer(services.PnL, services.Valuation, services.Ownership, services.Ledger, services.Backfill)
	grpcadapter.RegisterValuationServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("Failed to listen")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// 5. Start HTTP Server
	handler := rest.NewHandler(services.PnL, services.Valuation, services.Ownership, services.Ledger, services.Backfill, log)
	httpServer := rest.NewServer(cfg.HTTPAddr, handler, log)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve HTTP server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, grpcServer, httpServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(log zerolog.Logger, grpcServer *grpclib.Server, httpServer *rest.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()
	log.Info().Msg("Servers stopped")
}
