// Package tracing is a thin veneer over OpenTelemetry. The run, each job and
// each host probe record a span through a couple of helper functions, and the
// rest of the code never imports the upstream API directly. Until Init
// installs an exporter every span is a no-op.
package tracing
