package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// ErrDecode is wrapped by every Decode failure.
var ErrDecode = errors.New("parser: decode")

// ErrIncomplete is matched by every *ValidationError.
var ErrIncomplete = errors.New("parser: incomplete spot")

// Validation reasons reported by Build.
const (
	ReasonMissingSender   = "missing-sender"
	ReasonMissingReceiver = "missing-receiver"
	ReasonMalformedNumber = "malformed-numeric-field"
)

// minLocatorLen is the shortest locator usable for distance.
const minLocatorLen = 4

// maxLocatorLen is the precision locators are truncated to before geodesy.
const maxLocatorLen = 6

// ValidationError describes why a decoded message could not become a Spot.
type ValidationError struct {
	Reason string
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parser: %s (%s)", e.Reason, e.Field)
	}
	return "parser: " + e.Reason
}

// Is lets errors.Is(err, ErrIncomplete) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrIncomplete
}

// Raw is a decoded but not yet validated feed message.
type Raw struct {
	fields   map[string]json.RawMessage
	sequence *int64
}

// Sequence returns the message's feed sequence number, if it carries one.
func (r Raw) Sequence() (int64, bool) {
	if r.sequence == nil {
		return 0, false
	}
	return *r.sequence, true
}

// Decode checks that payload is a JSON object and extracts its sequence number.
// A fractional "sq" is truncated toward zero; one that is not a number at all
// is a decode failure.
func Decode(payload []byte) (Raw, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Raw{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if fields == nil {
		return Raw{}, fmt.Errorf("%w: payload is not an object", ErrDecode)
	}

	raw := Raw{fields: fields}
	if v, ok, err := numberField(fields, "sq"); err != nil {
		return Raw{}, fmt.Errorf("%w: sq: %v", ErrDecode, err)
	} else if ok {
		seq := int64(math.Trunc(v))
		raw.sequence = &seq
	}
	return raw, nil
}

// Parser builds Spots from decoded messages.
type Parser struct {
	geo Geodesy
}

// New returns a Parser using geo for distance and bearing. A nil geo selects
// the Maidenhead default.
func New(geo Geodesy) *Parser {
	if geo == nil {
		geo = Maidenhead{}
	}
	return &Parser{geo: geo}
}

// Parse decodes and builds in one step. now is used when the message has no
// report timestamp.
func (p *Parser) Parse(payload []byte, now time.Time) (types.Spot, error) {
	raw, err := Decode(payload)
	if err != nil {
		return types.Spot{}, err
	}
	return p.Build(raw, now)
}

// Build validates raw and derives the computed fields of a Spot.
func (p *Parser) Build(raw Raw, now time.Time) (types.Spot, error) {
	f := raw.fields

	sender := callsignField(f, "sc")
	if sender == "" {
		return types.Spot{}, &ValidationError{Reason: ReasonMissingSender, Field: "sc"}
	}
	receiver := callsignField(f, "rc")
	if receiver == "" {
		return types.Spot{}, &ValidationError{Reason: ReasonMissingReceiver, Field: "rc"}
	}

	freq, _, err := numberField(f, "f")
	if err != nil {
		return types.Spot{}, &ValidationError{Reason: ReasonMalformedNumber, Field: "f"}
	}
	snr, _, err := numberField(f, "rp")
	if err != nil {
		return types.Spot{}, &ValidationError{Reason: ReasonMalformedNumber, Field: "rp"}
	}
	ts := now
	if secs, ok, err := numberField(f, "t"); err != nil {
		return types.Spot{}, &ValidationError{Reason: ReasonMalformedNumber, Field: "t"}
	} else if ok {
		ts = time.Unix(int64(secs), 0).UTC()
	}

	spot := types.Spot{
		Sender:          sender,
		Receiver:        receiver,
		FrequencyHz:     freq,
		Mode:            textField(f, "md"),
		SNR:             int(snr),
		Band:            textField(f, "b"),
		Timestamp:       ts,
		SenderLocator:   strings.ToUpper(textField(f, "sl")),
		ReceiverLocator: strings.ToUpper(textField(f, "rl")),
		SenderCountry:   textField(f, "sa"),
		ReceiverCountry: textField(f, "ra"),
		Sequence:        raw.sequence,
	}
	if spot.Mode == "" {
		spot.Mode = types.UnknownMode
	}
	if spot.Band == "" {
		spot.Band = BandFor(spot.FrequencyMHz())
	}

	p.derive(&spot)
	return spot, nil
}

// derive fills distance and bearings when both locators are usable.
func (p *Parser) derive(spot *types.Spot) {
	from := truncate(spot.SenderLocator, maxLocatorLen)
	to := truncate(spot.ReceiverLocator, maxLocatorLen)
	if len(from) < minLocatorLen || len(to) < minLocatorLen {
		return
	}

	if d, ok := p.safely(p.geo.Distance, from, to); ok {
		spot.DistanceKm = d
	}
	if b, ok := p.safely(p.geo.Bearing, from, to); ok {
		spot.SenderBearing = &b
	}
	if b, ok := p.safely(p.geo.Bearing, to, from); ok {
		spot.ReceiverBearing = &b
	}
}

// safely calls fn, turning an error or panic into ok=false.
func (p *Parser) safely(fn func(a, b string) (float64, error), a, b string) (v float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("parser: geodesy panicked", "from", a, "to", b, "panic", r)
			v, ok = 0, false
		}
	}()
	v, err := fn(a, b)
	if err != nil {
		slog.Debug("parser: geodesy failed", "from", a, "to", b, "err", err)
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// --- field helpers ----------------------------------------------------------

// numberField reads a JSON number or numeric string. ok is false when the key
// is absent or null.
func numberField(f map[string]json.RawMessage, key string) (v float64, ok bool, err error) {
	raw, present := f[key]
	if !present || isNull(raw) {
		return 0, false, nil
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		f64, convErr := n.Float64()
		if convErr != nil {
			return 0, false, convErr
		}
		return f64, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("%s: not a number", key)
	}
	v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// textField reads a JSON string, or the literal text of a JSON number.
// Any other type reads as empty.
func textField(f map[string]json.RawMessage, key string) string {
	raw, present := f[key]
	if !present || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func callsignField(f map[string]json.RawMessage, key string) string {
	return strings.ToUpper(textField(f, key))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
