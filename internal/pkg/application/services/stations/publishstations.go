package stationsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/context-broker/pkg/datamodels/fiware"
	ngsierrors "github.com/diwise/context-broker/pkg/ngsild/errors"
	"github.com/diwise/context-broker/pkg/ngsild/types"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities/decorators"
	"github.com/diwise/context-broker/pkg/ngsild/types/properties"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/haldolabs/ingress-aprs/internal/pkg/domain"
)

func (svc *stationSvc) publishStationStatus(ctx context.Context, obs domain.StationObservation) (err error) {
	_, span := tracer.Start(ctx, "publish-station-status")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	attributes := convertObservationToFiwareEntity(obs)

	fragment, _ := entities.NewFragment(attributes...)
	entityID := fiware.DeviceIDPrefix + "aprs:" + obs.Callsign

	headers := map[string][]string{"Content-Type": {"application/ld+json"}}

	_, err = svc.ctxBrokerClient.MergeEntity(ctx, entityID, fragment, headers)
	if err != nil {
		if !errors.Is(err, ngsierrors.ErrNotFound) {
			err = fmt.Errorf("failed to merge entity: %s", err.Error())
			return
		}

		var entity types.Entity
		entity, err = entities.New(entityID, fiware.DeviceTypeName, attributes...)
		if err != nil {
			err = fmt.Errorf("entities.New failed: %s", err.Error())
			return
		}

		_, err = svc.ctxBrokerClient.CreateEntity(ctx, entity, headers)
		if err != nil {
			err = fmt.Errorf("failed to post station observation to context broker: %s", err.Error())
			return
		}
	}

	return nil
}

func convertObservationToFiwareEntity(obs domain.StationObservation) []entities.EntityDecoratorFunc {
	utcTime := time.Unix(obs.ReportedAt, 0).UTC().Format(time.RFC3339)

	attributes := append(
		make([]entities.EntityDecoratorFunc, 0, 6),
		decorators.Name(obs.Callsign),
		decorators.DateObserved(utcTime),
	)

	if obs.HasPosition() {
		attributes = append(attributes, decorators.Location(*obs.Lat, *obs.Lng))
	}

	if obs.Comment != "" {
		attributes = append(attributes, decorators.Text("comment", obs.Comment))
	}

	if obs.Course != nil {
		attributes = append(attributes, number("heading", *obs.Course, utcTime))
	}

	if obs.Speed != nil {
		attributes = append(attributes, number("speed", *obs.Speed, utcTime))
	}

	return attributes
}

func number(property string, value float64, at string) entities.EntityDecoratorFunc {
	return decorators.Number(property, value, properties.ObservedAt(at))
}
