// Package config loads and watches the pskrmon configuration file (config.yaml).
//
// Top-level types:
//   - Config{Monitor, Feed, Server, Alerts, Storage, LogLevel}: the full tree
//   - MonitorConfig: mode, callsign, direction, stats_window, spot_ttl,
//     max_spots, update_interval, sample_rate, filters
//   - FeedConfig: broker, transport (mqtt|mqtt_tls|ws|ws_tls), port, client_id,
//     modes, tls_insecure_skip_verify, connect_timeout
//   - ServerConfig: http_port, grpc_port, auth (apikey|none), mdns
//   - AlertsConfig, StorageConfig: alert rules, webhook targets, snapshot archive
//
// Load(path) reads the YAML file, applies defaults (personal rx, 15m window and
// TTL, 5000 spots, 60s updates, ports 8080/50051), then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config, re-adding the watch after atomic saves.
package config
