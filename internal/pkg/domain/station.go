package domain

import (
	"fmt"
	"strconv"
)

// StationObservation is one observed state of a tracked station at a point
// in time. Observations are append-only; a station that beacons again
// produces a new observation rather than a change to an old one.
//
// Optional fields the service did not report are nil and stored as NULL.
type StationObservation struct {
	Callsign   string   `db:"callsign"`
	Class      string   `db:"class"`
	Type       string   `db:"type"`
	Symbol     string   `db:"symbol"`
	SrcCall    string   `db:"srccall"`
	DstCall    string   `db:"dstcall"`
	Path       string   `db:"path"`
	Comment    string   `db:"comment"`
	PositionAt int64    `db:"position_time"`
	ReportedAt int64    `db:"report_time"`
	Lat        *float64 `db:"lat"`
	Lng        *float64 `db:"lng"`
	Altitude   *float64 `db:"altitude"`
	Course     *float64 `db:"course"`
	Speed      *float64 `db:"speed"`
}

// HasPosition reports whether the observation carries a known position.
func (o StationObservation) HasPosition() bool {
	return o.Lat != nil && o.Lng != nil
}

// WKT returns the observation's position as a POINT(lng lat) well known
// text geometry, or false if the position is unknown.
func (o StationObservation) WKT() (string, bool) {
	if !o.HasPosition() {
		return "", false
	}

	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(*o.Lng, 'f', -1, 64),
		strconv.FormatFloat(*o.Lat, 'f', -1, 64),
	), true
}
