// Package archive keeps a history of published snapshots in SQLite so the API
// can serve recent trends after a restart. It is write-only from the session's
// point of view; nothing is ever read back into live statistics.
package archive
