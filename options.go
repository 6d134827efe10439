package shirabe

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported; callers use the With* functions.
type resolvedOptions struct {
	dsn      string
	logger   *slog.Logger
	version  string
	source   MeasurementSource
	eventLog EventLog
}

// WithDSN overrides the event log location from config (SHIRABE_DB env var):
// a SQLite file path or a postgres:// URL.
func WithDSN(dsn string) Option {
	return func(o *resolvedOptions) { o.dsn = dsn }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version reported to telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithEventLog replaces the built-in SQLite/Postgres event log with a custom
// backend. When set, the DSN (flag or SHIRABE_DB) is ignored.
func WithEventLog(log EventLog) Option {
	return func(o *resolvedOptions) { o.eventLog = log }
}

// WithSource replaces the synthetic measurement source with a real backend.
// When set, RunSpec's fail/corrupt probabilities are ignored; fault behavior
// belongs to the injected source.
func WithSource(source MeasurementSource) Option {
	return func(o *resolvedOptions) { o.source = source }
}
