// Package monitoring provides the structured loggers used by the queues.
//
// Loggers are plain *slog.Logger values tagged with the name of the component that
// owns them. Queue events carry an "event_type" attribute (create, relabel, skip,
// spill, compaction, close) so that a JSON log stream can be filtered per event.
package monitoring
