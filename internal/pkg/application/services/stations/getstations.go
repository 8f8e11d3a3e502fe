package stationsvc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// userAgent identifies this scraper to the remote service, as a courtesy.
const userAgent = "haldolabs-ingress-aprs/1.0 (+https://github.com/haldolabs/ingress-aprs)"

func (svc *stationSvc) getStationStatus(ctx context.Context, names []string) ([]byte, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-stations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	params := url.Values{
		"name":   {strings.Join(names, ",")},
		"what":   {"loc"},
		"apikey": {svc.apiKey},
		"format": {"json"},
	}

	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err.Error())
	}
	apiReq.Header.Set("User-Agent", userAgent)

	apiResponse, err := httpClient.Do(apiReq)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrFetchFailed, err.Error())
		return nil, err
	}
	defer apiResponse.Body.Close()

	if apiResponse.StatusCode != http.StatusOK {
		err = fmt.Errorf("%w: expected status code %d, but got %d", ErrFetchFailed, http.StatusOK, apiResponse.StatusCode)
		return nil, err
	}

	responseBody, err := io.ReadAll(apiResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err.Error())
	}

	log.Debug("received response", "body", string(responseBody))

	return responseBody, nil
}
