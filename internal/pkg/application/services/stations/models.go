package stationsvc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// stationResponse mirrors the aprs.fi "get" API reply envelope. Entries are
// kept raw so that one undecodable entry does not abort the whole batch.
type stationResponse struct {
	Command     string            `json:"command"`
	Result      string            `json:"result"`
	Code        string            `json:"code"`
	Description string            `json:"description"`
	What        string            `json:"what"`
	Found       int               `json:"found"`
	Entries     []json.RawMessage `json:"entries"`
}

// stationEntry is one station in a reply. The API encodes numbers as JSON
// strings ("63.06717", "1498683040"), so numeric fields go through the
// loose* helpers, which accept either encoding.
type stationEntry struct {
	Class    string      `json:"class"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Time     looseEpoch  `json:"time"`
	LastTime looseEpoch  `json:"lasttime"`
	Lat      *looseFloat `json:"lat"`
	Lng      *looseFloat `json:"lng"`
	Course   *looseFloat `json:"course"`
	Speed    *looseFloat `json:"speed"`
	Altitude *looseFloat `json:"altitude"`
	Symbol   string      `json:"symbol"`
	SrcCall  string      `json:"srccall"`
	DstCall  string      `json:"dstcall"`
	Path     string      `json:"path"`
	Comment  string      `json:"comment"`
}

type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}

	*f = looseFloat(v)
	return nil
}

type looseEpoch int64

func (t *looseEpoch) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}

	*t = looseEpoch(v)
	return nil
}
