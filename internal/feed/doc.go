// Package feed connects to the PSKReporter MQTT broker and hands every raw
// spot payload to a Sink.
//
// The client subscribes to the topic filters that match the session's mode,
// callsign and direction, resubscribes after every reconnect, and reports
// connection transitions to the Sink. It never parses payloads itself.
package feed
