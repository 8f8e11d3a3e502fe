package stationsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/haldolabs/ingress-aprs/internal/pkg/application/services"
	"github.com/haldolabs/ingress-aprs/internal/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrFetchFailed   = errors.New("fetch failed")
	ErrParseFailed   = errors.New("parse failed")
	ErrPersistFailed = errors.New("persist failed")
)

// the aprs.fi API accepts at most 20 station names per request
const maxStationsPerRequest = 20

var (
	tracer = otel.Tracer("aprs-station-client")
	meter  = otel.Meter("aprs-station-client")
)

type StationService interface {
	services.Starter
	gatherAndStoreObservations(ctx context.Context) (int, error)
	getStationStatus(ctx context.Context, names []string) ([]byte, error)
	publishStationStatus(ctx context.Context, obs domain.StationObservation) error
}

// StationStore persists a batch of observations. Implementations must
// either commit the whole batch or return an error; a duplicate of an
// already stored observation is not an error, it is simply not counted.
type StationStore interface {
	Append(ctx context.Context, observations []domain.StationObservation) (int, error)
}

func NewStationService(ctx context.Context, apiKey, apiURL string, stations []string, minInterval, maxInterval time.Duration, store StationStore, ctxBrokerClient client.ContextBrokerClient) StationService {
	storedCount, _ := meter.Int64Counter("observations.stored",
		metric.WithDescription("number of station observations written to storage"),
	)
	skippedCount, _ := meter.Int64Counter("entries.skipped",
		metric.WithDescription("number of malformed station entries skipped during parsing"),
	)
	failedCount, _ := meter.Int64Counter("cycles.failed",
		metric.WithDescription("number of polling cycles that ended in an error"),
	)

	return &stationSvc{
		apiKey:          apiKey,
		apiURL:          apiURL,
		stations:        stations,
		minInterval:     minInterval,
		maxInterval:     maxInterval,
		store:           store,
		ctxBrokerClient: ctxBrokerClient,
		storedCount:     storedCount,
		skippedCount:    skippedCount,
		failedCount:     failedCount,
	}
}

type stationSvc struct {
	apiKey   string
	apiURL   string
	stations []string

	minInterval time.Duration
	maxInterval time.Duration

	store           StationStore
	ctxBrokerClient client.ContextBrokerClient

	storedCount  metric.Int64Counter
	skippedCount metric.Int64Counter
	failedCount  metric.Int64Counter
}

func (svc *stationSvc) Start(ctx context.Context) (chan struct{}, error) {
	done := make(chan struct{})

	go func() {
		defer func() { done <- struct{}{} }()

		wait := newCycleBackOff(svc.minInterval, svc.maxInterval)

		for {
			stored, err := svc.gatherAndStoreObservations(ctx)
			if err != nil {
				svc.failedCount.Add(ctx, 1)
				logging.GetFromContext(ctx).Error(
					"failed to gather station observations", "err", err.Error(),
				)
			}

			// the courtesy interval returns to its minimum as soon as a
			// cycle produces new data; empty and failed cycles back off
			// towards the configured maximum
			if err == nil && stored > 0 {
				wait.Reset()
			}

			select {
			case <-time.After(wait.NextBackOff()):
			case <-ctx.Done():
				return
			}
		}
	}()

	return done, nil
}

func newCycleBackOff(minInterval, maxInterval time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minInterval
	b.MaxInterval = maxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

func (svc *stationSvc) gatherAndStoreObservations(ctx context.Context) (int, error) {
	var err error

	ctx, span := tracer.Start(ctx, "gather-and-store-observations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(
		span, logging.GetFromContext(ctx), ctx,
	)

	observations := make([]domain.StationObservation, 0, len(svc.stations))

	for _, chunk := range chunkStations(svc.stations, maxStationsPerRequest) {
		var responseBody []byte

		responseBody, err = svc.getStationStatus(ctx, chunk)
		if err != nil {
			return 0, err
		}

		parsed, skipped, parseErr := observationsFromResponse(responseBody)
		if parseErr != nil {
			err = parseErr
			return 0, err
		}

		for _, reason := range skipped {
			log.Warn("skipped malformed station entry", "reason", reason)
		}
		svc.skippedCount.Add(ctx, int64(len(skipped)))

		observations = append(observations, parsed...)
	}

	if len(observations) == 0 {
		log.Info("no station data returned")
		return 0, nil
	}

	stored, err := svc.store.Append(ctx, observations)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrPersistFailed, err.Error())
		return 0, err
	}

	svc.storedCount.Add(ctx, int64(stored))
	log.Info("stored station observations",
		"parsed", len(observations), "stored", stored,
	)

	if svc.ctxBrokerClient != nil {
		for _, obs := range observations {
			pubErr := svc.publishStationStatus(ctx, obs)
			if pubErr != nil {
				log.Error("unable to publish data for station", "station", obs.Callsign, "err", pubErr.Error())
			}
		}
	}

	return stored, nil
}

func chunkStations(stations []string, size int) [][]string {
	chunks := make([][]string, 0, (len(stations)+size-1)/size)

	for size < len(stations) {
		chunks = append(chunks, stations[:size])
		stations = stations[size:]
	}

	if len(stations) > 0 {
		chunks = append(chunks, stations)
	}

	return chunks
}
