package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"trainjob/config"
	docs "trainjob/internal/app/docs"
	"trainjob/internal/app/router"
	jobmod "trainjob/internal/module/job"
	"trainjob/internal/module/slurmctld"
	slurmdbmod "trainjob/internal/module/slurmdb"
	slurmdbc "trainjob/internal/pkg/client/slurmdb"
)

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, addr string, shutdownTimeout time.Duration) error {
	// accounting endpoints answer 500 until a database is configured
	if cfg.Server.Slurmdb.Enabled() {
		scli, err := slurmdbc.New(cfg.Server.Slurmdb, logger)
		if err != nil {
			logger.Error("failed to initialize slurmdb client", slog.Any("err", err))
			return err
		}
		slurmdbc.SetDefault(scli)
		defer func() { _ = scli.Close() }()
	} else {
		logger.Warn("slurmdb not configured, accounting endpoints disabled")
	}

	r := router.New(logger)
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Register(
		jobmod.Router{Spec: cfg.Job},
		slurmctld.Router{},
		slurmdbmod.Router{},
	)
	router.MountAll(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("server failed", slog.Any("err", err))
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	logger.Info("server exiting")
	return nil
}
