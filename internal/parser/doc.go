// Package parser turns one raw PSKReporter feed payload into a types.Spot.
//
// Parsing is split in two so the caller can observe the sequence number of
// every structurally valid message before field validation:
//
//   - Decode(payload) checks the payload is a JSON object and extracts the
//     optional "sq" sequence number. Failures wrap ErrDecode.
//   - Parser.Build(raw, now) validates required fields and derives band,
//     distance and bearings. Failures are *ValidationError values that match
//     ErrIncomplete.
//
// Payload keys: sc/rc callsigns, f frequency in Hz, md mode, rp report (SNR),
// t unix seconds, sl/rl locators, b band, sa/ra ADIF country codes, sq sequence.
// Numeric fields may be JSON numbers or numeric strings.
//
// Distance and bearing come from a Geodesy. The default, Maidenhead, decodes
// locator centres and applies the haversine formula. A Geodesy that errors or
// panics never rejects a spot; the derived fields are simply left empty.
package parser
