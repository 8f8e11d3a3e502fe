package stationsvc

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestParseProducesOneObservationPerEntry(t *testing.T) {
	is := is.New(t)

	observations, skipped, err := observationsFromResponse([]byte(responseJSON))

	is.NoErr(err)
	is.Equal(len(skipped), 0)
	is.Equal(len(observations), 2)

	obs := observations[1]
	is.Equal(obs.Callsign, "OH7RDA")
	is.Equal(obs.Class, "a")
	is.Equal(obs.Symbol, "/#")
	is.Equal(obs.SrcCall, "OH7RDA")
	is.Equal(obs.DstCall, "APNW01")
	is.Equal(obs.Path, "OH7AA-1*,WIDE2-1")
	is.Equal(obs.PositionAt, int64(1494319181))
	is.Equal(obs.ReportedAt, int64(1498683040))
	is.Equal(*obs.Lat, 63.06717)
	is.Equal(*obs.Lng, 27.66050)
	is.True(obs.Speed == nil) // speed was not reported and must stay unknown
}

func TestParseAcceptsUnquotedNumbers(t *testing.T) {
	is := is.New(t)

	body := `{"result":"ok","found":1,"entries":[{"name":"N0CALL-9","time":1700000000,"lasttime":1700000000,"lat":47.6,"lng":-122.3,"comment":"mobile"}]}`

	observations, skipped, err := observationsFromResponse([]byte(body))

	is.NoErr(err)
	is.Equal(len(skipped), 0)
	is.Equal(len(observations), 1)
	is.Equal(observations[0].Callsign, "N0CALL-9")
	is.Equal(*observations[0].Lat, 47.6)
	is.Equal(*observations[0].Lng, -122.3)
}

func TestParseSkipsMalformedEntry(t *testing.T) {
	is := is.New(t)

	body := `{"result":"ok","found":3,"entries":[
		{"name":"OH7RDA","time":"1494319181","lasttime":"1498683040","lat":"63.06717","lng":"27.66050"},
		{"time":"1494319181","lasttime":"1498683040","lat":"1.0","lng":"2.0"},
		{"name":"N0CALL-9","time":"1700000000","lasttime":"1700000000","lat":"not-a-number","lng":"-122.3"},
		{"name":"K7ABC","time":"1700000100","lasttime":"1700000100"}
	]}`

	observations, skipped, err := observationsFromResponse([]byte(body))

	is.NoErr(err)
	is.Equal(len(skipped), 2) // one entry without a name and one with a broken latitude
	is.Equal(len(observations), 2)
	is.Equal(observations[0].Callsign, "OH7RDA")
	is.Equal(observations[1].Callsign, "K7ABC")
	is.True(observations[1].Lat == nil)
}

func TestParseRejectsServiceFailure(t *testing.T) {
	is := is.New(t)

	body := `{"command":"get","result":"fail","code":"apikey-wrong","description":"wrong API key"}`

	_, _, err := observationsFromResponse([]byte(body))

	is.True(errors.Is(err, ErrParseFailed))
}

func TestParseRejectsMalformedBody(t *testing.T) {
	is := is.New(t)

	_, _, err := observationsFromResponse([]byte("<html>not json</html>"))

	is.True(errors.Is(err, ErrParseFailed))
}

func TestParseFallsBackToPositionTime(t *testing.T) {
	is := is.New(t)

	body := `{"result":"ok","found":1,"entries":[{"name":"N0CALL-9","time":"1700000000"}]}`

	observations, skipped, err := observationsFromResponse([]byte(body))

	is.NoErr(err)
	is.Equal(len(skipped), 0)
	is.Equal(observations[0].ReportedAt, int64(1700000000))
}
