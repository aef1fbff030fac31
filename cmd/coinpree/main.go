package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/pam-pakkiri/coinpree/internal/api"
	"github.com/pam-pakkiri/coinpree/internal/cache"
	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/service"
	"github.com/pam-pakkiri/coinpree/internal/util"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", common.DefaultConfigPath, "Path to config file")
	envPath := flag.String("env", common.DefaultEnvPath, "Path to optional .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("error_code", common.ErrCodeConfigLoadFailed.String()).
			Str("error_message", common.ErrMsgConfigLoadFailed.String()).
			Msg("Failed to load config")
	}

	if !util.SetLevel(cfg.LogLevel) {
		log.Fatal().Str("log_level", cfg.LogLevel).Msg("Invalid log level in config, use: debug, info, warn, error")
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	logger := util.NewLogger()

	c := cache.New(cfg.GetCacheDir())
	if err := c.Init(); err != nil {
		logger.Error(err, common.ErrCodeCacheWriteFailed, common.ErrMsgCacheWriteFailed, "Cache directory unavailable, persistence disabled", "dir", cfg.GetCacheDir())
		c = cache.New("")
	}
	engine := service.NewEngine(cfg, c)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GetGRPCPort())
	lis, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Error(err, common.ErrCodeGRPCServeFailed, common.ErrMsgGRPCServeFailed, "Failed to listen", "address", serverAddr)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(common.MaxGRPCMessageSize),
		grpc.MaxSendMsgSize(common.MaxGRPCMessageSize),
	)
	service.RegisterSignalService(grpcServer, service.NewGRPCServer(engine))

	go func() {
		logger.Info("Starting gRPC server", "address", serverAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(err, common.ErrCodeGRPCServeFailed, common.ErrMsgGRPCServeFailed, "gRPC serve failed")
			os.Exit(1)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           api.NewServer(engine).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, common.ErrCodeHTTPServeFailed, common.ErrMsgHTTPServeFailed, "HTTP serve failed")
			os.Exit(1)
		}
	}()

	var refresher *service.Refresher
	if cfg.Refresh.Enabled {
		refresher = service.NewRefresher(engine, cfg.Refresh)
		if err := refresher.Start(cfg.GetRefreshSchedule()); err != nil {
			refresher = nil
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down server...")
	if refresher != nil {
		refresher.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(err, common.ErrCodeHTTPServeFailed, common.ErrMsgHTTPServeFailed, "HTTP shutdown failed")
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped gracefully")
}
