package stationsvc

import (
	"encoding/json"
	"fmt"

	"github.com/haldolabs/ingress-aprs/internal/pkg/domain"
)

// observationsFromResponse decodes an aprs.fi reply body into station
// observations. A reply that cannot be decoded, or that signals an
// application level failure, is an error for the whole batch. A single bad
// entry is skipped and counted instead; the skip reasons are returned so
// the caller can log them.
func observationsFromResponse(body []byte) ([]domain.StationObservation, []string, error) {
	answer := &stationResponse{}

	err := json.Unmarshal(body, answer)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrParseFailed, err.Error())
	}

	if answer.Result != "ok" {
		return nil, nil, fmt.Errorf("%w: service reported %q (%s)", ErrParseFailed, answer.Result, answer.Description)
	}

	observations := make([]domain.StationObservation, 0, len(answer.Entries))
	skipped := make([]string, 0)

	for i, raw := range answer.Entries {
		entry := stationEntry{}
		if err := json.Unmarshal(raw, &entry); err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: %s", i, err.Error()))
			continue
		}

		obs, err := entry.toObservation()
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: %s", i, err.Error()))
			continue
		}

		observations = append(observations, obs)
	}

	return observations, skipped, nil
}

func (e stationEntry) toObservation() (domain.StationObservation, error) {
	if e.Name == "" {
		return domain.StationObservation{}, fmt.Errorf("entry has no station name")
	}

	if e.Time == 0 {
		return domain.StationObservation{}, fmt.Errorf("entry for %s has no timestamp", e.Name)
	}

	reportedAt := int64(e.LastTime)
	if reportedAt == 0 {
		reportedAt = int64(e.Time)
	}

	return domain.StationObservation{
		Callsign:   e.Name,
		Class:      e.Class,
		Type:       e.Type,
		Symbol:     e.Symbol,
		SrcCall:    e.SrcCall,
		DstCall:    e.DstCall,
		Path:       e.Path,
		Comment:    e.Comment,
		PositionAt: int64(e.Time),
		ReportedAt: reportedAt,
		Lat:        floatValue(e.Lat),
		Lng:        floatValue(e.Lng),
		Altitude:   floatValue(e.Altitude),
		Course:     floatValue(e.Course),
		Speed:      floatValue(e.Speed),
	}, nil
}

func floatValue(f *looseFloat) *float64 {
	if f == nil {
		return nil
	}

	v := float64(*f)
	return &v
}
