package types

import "time"

// Direction selects which side of a spot the monitored callsign is on.
type Direction string

const (
	// DirectionRX monitors spots where the callsign is the receiver.
	DirectionRX Direction = "rx"
	// DirectionTX monitors spots where the callsign is the sender.
	DirectionTX Direction = "tx"
	// DirectionDual monitors both.
	DirectionDual Direction = "dual"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionRX, DirectionTX, DirectionDual:
		return true
	}
	return false
}

// MonitorMode selects how a session retains accepted spots.
type MonitorMode string

const (
	// ModePersonal keeps every accepted spot for one station in a TTL store.
	ModePersonal MonitorMode = "personal"
	// ModeGlobal folds the network-wide feed into count-only rolling totals.
	ModeGlobal MonitorMode = "global"
)

// Valid reports whether m is one of the known monitor modes.
func (m MonitorMode) Valid() bool {
	return m == ModePersonal || m == ModeGlobal
}

// UnknownMode is the mode label used when a report does not carry one.
const UnknownMode = "UNKNOWN"

// UnknownBand is the band label used when the frequency matches no band.
const UnknownBand = "Unknown"

// Spot is one propagation report: a receiver heard a sender at a point in time.
type Spot struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`

	FrequencyHz float64 `json:"frequency_hz"`
	Mode        string  `json:"mode"`
	SNR         int     `json:"snr"`
	Band        string  `json:"band"`

	// Timestamp is the report time declared by the source, not arrival time.
	Timestamp time.Time `json:"timestamp"`

	SenderLocator   string `json:"sender_locator,omitempty"`
	ReceiverLocator string `json:"receiver_locator,omitempty"`

	// DistanceKm is 0 when either locator is missing or too short.
	DistanceKm float64 `json:"distance_km"`

	SenderCountry   string `json:"sender_country,omitempty"`
	ReceiverCountry string `json:"receiver_country,omitempty"`

	SenderBearing   *float64 `json:"sender_bearing,omitempty"`
	ReceiverBearing *float64 `json:"receiver_bearing,omitempty"`

	Sequence *int64 `json:"sequence,omitempty"`
}

// FrequencyMHz returns the frequency in megahertz.
func (s Spot) FrequencyMHz() float64 {
	return s.FrequencyHz / 1e6
}
