package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	stationsvc "github.com/haldolabs/ingress-aprs/internal/pkg/application/services/stations"
	"github.com/haldolabs/ingress-aprs/internal/pkg/infrastructure/config"
	"github.com/haldolabs/ingress-aprs/internal/pkg/infrastructure/storage"
)

const serviceName string = "ingress-aprs"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion, "json")
	defer cleanup()

	apiKey := env.GetVariableOrDie(ctx, "APRSFI_API_KEY", "aprs.fi API key")
	apiURL := env.GetVariableOrDefault(ctx, "APRSFI_API_URL", "https://api.aprs.fi/api/get")
	dbPath := env.GetVariableOrDie(ctx, "SQLITE_DB_PATH", "output database path")
	stationsFile := env.GetVariableOrDefault(ctx, "STATIONS_FILE", "/data/stations.yaml")

	minInterval := durationOrDie(ctx, "POLLING_MIN_INTERVAL", "60s")
	maxInterval := durationOrDie(ctx, "POLLING_MAX_INTERVAL", "15m")
	if minInterval >= maxInterval {
		fatal(ctx, "POLLING_MIN_INTERVAL must be shorter than POLLING_MAX_INTERVAL", nil)
	}

	cfg, err := config.Load(stationsFile)
	if err != nil {
		fatal(ctx, "failed to load station list", err)
	}
	logger.Info("loaded station list", "file", stationsFile, "stations", len(cfg.Stations))

	store, err := storage.New(ctx, storage.Config{Path: dbPath})
	if err != nil {
		fatal(ctx, "failed to open storage", err)
	}
	defer store.Close()

	var ctxBrokerClient client.ContextBrokerClient
	if brokerURL := env.GetVariableOrDefault(ctx, "CONTEXT_BROKER_URL", ""); brokerURL != "" {
		ctxBrokerClient = client.NewContextBrokerClient(brokerURL)
		logger.Info("forwarding observations to context broker", "url", brokerURL)
	}

	svc := stationsvc.NewStationService(
		ctx, apiKey, apiURL, cfg.Stations, minInterval, maxInterval, store, ctxBrokerClient,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done, err := svc.Start(ctx)
	if err != nil {
		fatal(ctx, "failed to start station service", err)
	}

	logger.Info("starting up ...")

	<-ctx.Done()
	stop()

	logger.Info("shutting down ...")
	<-done
}

func durationOrDie(ctx context.Context, envVar, defaultValue string) time.Duration {
	value := env.GetVariableOrDefault(ctx, envVar, defaultValue)

	d, err := time.ParseDuration(value)
	if err != nil {
		fatal(ctx, "invalid duration in "+envVar, err)
	}

	return d
}

func fatal(ctx context.Context, msg string, err error) {
	logger := logging.GetFromContext(ctx)
	if err != nil {
		logger.Error(msg, "err", err.Error())
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
