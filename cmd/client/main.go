package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/service"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

var kacp = keepalive.ClientParameters{
	Time:                10 * time.Second, // send pings every 10 seconds
	Timeout:             time.Second,      // wait 1 second for ping ack
	PermitWithoutStream: true,             // send pings even without active streams
}

var methods = map[string]string{
	common.StrategyAdvanced:  service.MethodGetSignals,
	common.StrategyCrossover: service.MethodGetCrossoverSignals,
	common.StrategyReversal:  service.MethodGetShortReversalSignals,
	common.StrategyStructure: service.MethodGetStructureSignals,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := flag.String("config", common.DefaultConfigPath, "Path to config file")
	strategy := flag.String("strategy", common.StrategyAdvanced, "advanced, crossover, reversal or structure")
	exchange := flag.String("exchange", "", "Exchange id (default binance_futures)")
	timeframe := flag.String("timeframe", "", "Candle timeframe")
	limit := flag.Int("limit", 0, "Reversal universe size")
	watch := flag.Bool("watch", false, "Stream scan snapshots instead of a single request")
	asJSON := flag.Bool("json", false, "Print raw JSON")
	retryInterval := flag.Int("retry", 5, "Retry interval in seconds for reconnection")
	maxRetries := flag.Int("max-retries", 10, "Maximum number of retry attempts (0 for unlimited)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, "")
	if err != nil {
		log.Fatal().
			Err(err).
			Str("error_code", common.ErrCodeConfigLoadFailed.String()).
			Str("error_message", common.ErrMsgConfigLoadFailed.String()).
			Msg("Failed to load config")
	}

	method, ok := methods[*strategy]
	if !ok {
		log.Fatal().Str("strategy", *strategy).Msg("Unknown strategy")
	}
	req := service.SignalRequest{Exchange: *exchange, Timeframe: *timeframe, Limit: *limit}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GetGRPCPort())
	retryCount := 0

	for {
		if *maxRetries > 0 && retryCount >= *maxRetries {
			log.Error().Msg("Maximum retry attempts reached. Exiting...")
			os.Exit(1)
		}

		if retryCount > 0 {
			log.Info().
				Int("retry_count", retryCount).
				Int("max_retries", *maxRetries).
				Int("retry_interval_sec", *retryInterval).
				Msg("Attempting to reconnect...")
			time.Sleep(time.Duration(*retryInterval) * time.Second)
		}

		ctx := context.Background()
		conn, err := grpc.DialContext(
			ctx,
			serverAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithBlock(),
			grpc.WithKeepaliveParams(kacp),
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(common.MaxGRPCMessageSize),
				grpc.MaxCallSendMsgSize(common.MaxGRPCMessageSize),
			),
		)
		if err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeGRPCConnectionFailed.String()).
				Str("error_message", common.ErrMsgGRPCConnectionFailed.String()).
				Str("address", serverAddr).
				Msg("gRPC connect failed")
			retryCount++
			continue
		}

		log.Info().Str("address", serverAddr).Msg("Successfully connected to gRPC server")

		client := service.NewSignalClient(conn)
		if *watch {
			req.Strategy = *strategy
			err = streamSnapshots(ctx, client, req, *asJSON)
		} else {
			err = fetchOnce(ctx, client, method, req, *asJSON)
		}
		if err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeStreamClosed.String()).
				Str("error_message", common.ErrMsgStreamClosed.String()).
				Msg("Request failed")
		}

		if err := conn.Close(); err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeGRPCConnectionCloseFailed.String()).
				Str("error_message", common.ErrMsgGRPCConnectionCloseFailed.String()).
				Msg("Failed to close gRPC connection")
		}
		if err == nil {
			return
		}
		retryCount++
	}
}

func fetchOnce(ctx context.Context, client *service.SignalClient, method string, req service.SignalRequest, asJSON bool) error {
	signals, err := client.Call(ctx, method, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if asJSON {
		return printJSON(signals)
	}
	for _, s := range signals {
		printSignal(s)
	}
	log.Info().Int("count", len(signals)).Msg("Scan received")
	return nil
}

func streamSnapshots(ctx context.Context, client *service.SignalClient, req service.SignalRequest, asJSON bool) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.Subscribe(streamCtx, req)
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	log.Info().Str("strategy", req.Strategy).Str("exchange", req.Exchange).Msg("Subscribed to snapshot stream")

	for {
		snap, err := stream.Recv()
		if err == io.EOF {
			log.Info().Msg("Stream closed by server (EOF)")
			return nil
		}
		if err != nil {
			if isContextError(err) {
				log.Debug().Err(err).Msg("Context canceled, stopping stream")
				return nil
			}
			return fmt.Errorf("receive error: %w", err)
		}

		if asJSON {
			if err := printJSON(snap); err != nil {
				return err
			}
			continue
		}
		fmt.Printf("Scan %s [%s %s %s] %d signals\n", snap.ScanID, snap.Strategy, snap.Exchange, snap.Timeframe, len(snap.Signals))
		for _, s := range snap.Signals {
			printSignal(s)
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSignal(s models.Signal) {
	fmt.Printf("%-4s %-10s score=%3d entry=%.6g sl=%.6g tp=%.6g rr=%.2f ago=%d %s\n",
		s.Direction, s.Symbol, s.Score, s.EntryPrice, s.StopLoss, s.TakeProfit, s.RiskRewardRatio, s.CandlesAgo, s.SourceLink)
}
