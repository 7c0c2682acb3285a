package parser

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// failingGeo is a Geodesy that always errors.
type failingGeo struct{}

func (failingGeo) Distance(string, string) (float64, error) { return 0, errors.New("boom") }
func (failingGeo) Bearing(string, string) (float64, error)  { return 0, errors.New("boom") }

// panickingGeo is a Geodesy that always panics.
type panickingGeo struct{}

func (panickingGeo) Distance(string, string) (float64, error) { panic("distance") }
func (panickingGeo) Bearing(string, string) (float64, error)  { panic("bearing") }

// fixedGeo returns constant values and records that it was called.
type fixedGeo struct {
	calls int
}

func (g *fixedGeo) Distance(string, string) (float64, error) { g.calls++; return 1234, nil }
func (g *fixedGeo) Bearing(string, string) (float64, error)  { g.calls++; return 45, nil }

// --- Decode -----------------------------------------------------------------

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode([]byte("not json"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestDecode_NotObject(t *testing.T) {
	for _, payload := range []string{`null`, `[1,2]`, `"sc"`, `42`} {
		if _, err := Decode([]byte(payload)); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%s) err = %v, want ErrDecode", payload, err)
		}
	}
}

func TestDecode_Sequence(t *testing.T) {
	raw, err := Decode([]byte(`{"sq": 42}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := raw.Sequence()
	if !ok || seq != 42 {
		t.Errorf("Sequence() = %d, %v; want 42, true", seq, ok)
	}

	raw, err = Decode([]byte(`{"sq": "43"}`))
	if err != nil {
		t.Fatalf("string sq: unexpected error: %v", err)
	}
	if seq, _ := raw.Sequence(); seq != 43 {
		t.Errorf("string sq = %d, want 43", seq)
	}
}

func TestDecode_FractionalSequenceTruncated(t *testing.T) {
	for payload, want := range map[string]int64{
		`{"sq": 42.9}`:   42,
		`{"sq": "43.5"}`: 43,
		`{"sq": -7.2}`:   -7,
	} {
		raw, err := Decode([]byte(payload))
		if err != nil {
			t.Errorf("Decode(%s): unexpected error: %v", payload, err)
			continue
		}
		if seq, ok := raw.Sequence(); !ok || seq != want {
			t.Errorf("Decode(%s) Sequence() = %d, %v; want %d, true", payload, seq, ok, want)
		}
	}
}

func TestDecode_MissingSequence(t *testing.T) {
	raw, err := Decode([]byte(`{"sc": "W1AW"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw.Sequence(); ok {
		t.Error("Sequence() ok = true, want false")
	}
}

func TestDecode_BadSequence(t *testing.T) {
	for _, payload := range []string{`{"sq": "abc"}`, `{"sq": true}`, `{"sq": [1]}`} {
		if _, err := Decode([]byte(payload)); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%s) err = %v, want ErrDecode", payload, err)
		}
	}
}

// --- Build ------------------------------------------------------------------

func TestParse_FullSpot(t *testing.T) {
	p := New(nil)
	payload := `{"sq":7,"f":14074123,"md":"FT8","rp":-12,"t":1767225600,` +
		`"sc":"w1aw","sl":"FN31pr","rc":"K2ABC","rl":"FN20xr","sa":291,"ra":"291","b":"20m"}`

	spot, err := p.Parse([]byte(payload), baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spot.Sender != "W1AW" {
		t.Errorf("Sender = %q, want W1AW", spot.Sender)
	}
	if spot.Receiver != "K2ABC" {
		t.Errorf("Receiver = %q, want K2ABC", spot.Receiver)
	}
	if spot.Mode != "FT8" {
		t.Errorf("Mode = %q, want FT8", spot.Mode)
	}
	if spot.SNR != -12 {
		t.Errorf("SNR = %d, want -12", spot.SNR)
	}
	if spot.Band != "20m" {
		t.Errorf("Band = %q, want 20m", spot.Band)
	}
	if !spot.Timestamp.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("Timestamp = %v, want source time", spot.Timestamp)
	}
	if spot.SenderCountry != "291" || spot.ReceiverCountry != "291" {
		t.Errorf("countries = %q/%q, want 291/291", spot.SenderCountry, spot.ReceiverCountry)
	}
	if spot.DistanceKm <= 0 {
		t.Errorf("DistanceKm = %v, want > 0", spot.DistanceKm)
	}
	if spot.SenderBearing == nil || spot.ReceiverBearing == nil {
		t.Error("bearings should be set when both locators are present")
	}
	if spot.Sequence == nil || *spot.Sequence != 7 {
		t.Errorf("Sequence = %v, want 7", spot.Sequence)
	}
}

func TestParse_Defaults(t *testing.T) {
	p := New(nil)
	spot, err := p.Parse([]byte(`{"sc":"W1AW","rc":"K2ABC"}`), baseTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spot.FrequencyHz != 0 {
		t.Errorf("FrequencyHz = %v, want 0", spot.FrequencyHz)
	}
	if spot.Mode != types.UnknownMode {
		t.Errorf("Mode = %q, want %q", spot.Mode, types.UnknownMode)
	}
	if spot.Band != types.UnknownBand {
		t.Errorf("Band = %q, want %q", spot.Band, types.UnknownBand)
	}
	if !spot.Timestamp.Equal(baseTime) {
		t.Errorf("Timestamp = %v, want arrival time %v", spot.Timestamp, baseTime)
	}
	if spot.DistanceKm != 0 {
		t.Errorf("DistanceKm = %v, want 0", spot.DistanceKm)
	}
	if spot.SenderBearing != nil {
		t.Error("SenderBearing should be nil without locators")
	}
}

func TestParse_BandFromFrequency(t *testing.T) {
	p := New(nil)
	spot, err := p.Parse([]byte(`{"sc":"W1AW","rc":"K2ABC","f":"7074000"}`), baseTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spot.Band != "40m" {
		t.Errorf("Band = %q, want 40m", spot.Band)
	}
}

func TestParse_MissingCallsigns(t *testing.T) {
	p := New(nil)
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"no sender", `{"rc":"K2ABC"}`, ReasonMissingSender},
		{"empty sender", `{"sc":"  ","rc":"K2ABC"}`, ReasonMissingSender},
		{"no receiver", `{"sc":"W1AW"}`, ReasonMissingReceiver},
		{"object receiver", `{"sc":"W1AW","rc":{}}`, ReasonMissingReceiver},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tc.body), baseTime)
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("err = %v, want ErrIncomplete", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if verr.Reason != tc.reason {
				t.Errorf("Reason = %q, want %q", verr.Reason, tc.reason)
			}
		})
	}
}

func TestParse_MalformedNumber(t *testing.T) {
	p := New(nil)
	for _, body := range []string{
		`{"sc":"W1AW","rc":"K2ABC","f":"abc"}`,
		`{"sc":"W1AW","rc":"K2ABC","rp":true}`,
		`{"sc":"W1AW","rc":"K2ABC","t":"yesterday"}`,
	} {
		_, err := p.Parse([]byte(body), baseTime)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Reason != ReasonMalformedNumber {
			t.Errorf("Parse(%s) err = %v, want %s", body, err, ReasonMalformedNumber)
		}
	}
}

func TestParse_ShortLocatorSkipsGeodesy(t *testing.T) {
	geo := &fixedGeo{}
	p := New(geo)
	spot, err := p.Parse([]byte(`{"sc":"W1AW","rc":"K2ABC","sl":"FN3","rl":"FN20"}`), baseTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.calls != 0 {
		t.Errorf("geodesy calls = %d, want 0", geo.calls)
	}
	if spot.DistanceKm != 0 {
		t.Errorf("DistanceKm = %v, want 0", spot.DistanceKm)
	}
}

func TestParse_GeodesyUsed(t *testing.T) {
	geo := &fixedGeo{}
	p := New(geo)
	spot, err := p.Parse([]byte(`{"sc":"W1AW","rc":"K2ABC","sl":"FN31pr12","rl":"FN20"}`), baseTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spot.DistanceKm != 1234 {
		t.Errorf("DistanceKm = %v, want 1234", spot.DistanceKm)
	}
	if spot.SenderBearing == nil || *spot.SenderBearing != 45 {
		t.Errorf("SenderBearing = %v, want 45", spot.SenderBearing)
	}
}

func TestParse_GeodesyFailureKeepsSpot(t *testing.T) {
	for name, geo := range map[string]Geodesy{"error": failingGeo{}, "panic": panickingGeo{}} {
		t.Run(name, func(t *testing.T) {
			p := New(geo)
			spot, err := p.Parse([]byte(`{"sc":"W1AW","rc":"K2ABC","sl":"FN31","rl":"FN20"}`), baseTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if spot.DistanceKm != 0 {
				t.Errorf("DistanceKm = %v, want 0", spot.DistanceKm)
			}
			if spot.SenderBearing != nil || spot.ReceiverBearing != nil {
				t.Error("bearings should be absent after geodesy failure")
			}
		})
	}
}

// --- bands, callsigns, locators ---------------------------------------------

func TestBandFor(t *testing.T) {
	tests := []struct {
		mhz  float64
		want string
	}{
		{1.84, "160m"},
		{3.573, "80m"},
		{5.357, "60m"},
		{7.074, "40m"},
		{10.136, "30m"},
		{14.0, "20m"},
		{14.35, "20m"},
		{18.1, "17m"},
		{21.074, "15m"},
		{24.915, "12m"},
		{28.074, "10m"},
		{50.313, "6m"},
		{70.154, "4m"},
		{144.174, "2m"},
		{432.174, "70cm"},
		{0, types.UnknownBand},
		{13.9, types.UnknownBand},
		{1296.0, types.UnknownBand},
	}
	for _, tc := range tests {
		if got := BandFor(tc.mhz); got != tc.want {
			t.Errorf("BandFor(%v) = %q, want %q", tc.mhz, got, tc.want)
		}
	}
}

func TestBaseCallsign(t *testing.T) {
	tests := map[string]string{
		"W1AW":        "W1AW",
		"w1aw/p":      "W1AW",
		"EA8/W1AW":    "W1AW",
		"EA8/W1AW/P":  "W1AW",
		"VP2E/K1ABC":  "K1ABC",
		"DL1ABC/QRP":  "DL1ABC",
		"K2ABC.MM":    "K2ABC",
		"ABC/DEF":     "ABC",
	}
	for in, want := range tests {
		if got := BaseCallsign(in); got != want {
			t.Errorf("BaseCallsign(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocatorCenter(t *testing.T) {
	lat, lon, err := LocatorCenter("JJ00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(lat, 0.5, 1e-9) || !almostEqual(lon, 1.0, 1e-9) {
		t.Errorf("JJ00 centre = %v,%v; want 0.5,1.0", lat, lon)
	}

	lat, lon, err = LocatorCenter("jj00aa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(lat, 1.0/48, 1e-9) || !almostEqual(lon, 1.0/24, 1e-9) {
		t.Errorf("JJ00AA centre = %v,%v; want %v,%v", lat, lon, 1.0/48, 1.0/24)
	}
}

func TestLocatorCenter_Invalid(t *testing.T) {
	for _, loc := range []string{"", "FN", "ZZ00", "FNAA", "FN31zz", "1234"} {
		if _, _, err := LocatorCenter(loc); err == nil {
			t.Errorf("LocatorCenter(%q): expected error, got nil", loc)
		}
	}
}

func TestMaidenhead_DistanceAndBearing(t *testing.T) {
	var g Maidenhead
	// Two squares 2 degrees of longitude apart on the equator.
	d, err := g.Distance("JJ00", "JJ10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(d, 222.38, 0.5) {
		t.Errorf("Distance = %.2f, want about 222.38", d)
	}

	b, err := g.Bearing("JJ00", "JJ10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(b, 90, 0.1) {
		t.Errorf("Bearing east = %.3f, want about 90", b)
	}

	b, err = g.Bearing("JJ10", "JJ00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(b, 270, 0.1) {
		t.Errorf("Bearing west = %.3f, want about 270", b)
	}

	if d, _ := g.Distance("FN31", "FN31"); d != 0 {
		t.Errorf("same square distance = %v, want 0", d)
	}
}
