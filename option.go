package forkly

import (
	"io"
	"log"

	"github.com/viant/forkly/policy"
	"github.com/viant/forkly/service/mirror"
	"github.com/viant/forkly/service/prober"
	"github.com/viant/forkly/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the forkly service.
type Option func(s *Service)

// WithConfig sets the run configuration; it takes precedence over
// WithConfigURL.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithConfigURL loads the run configuration from the given URL when Run
// starts.
func WithConfigURL(URL string) Option {
	return func(s *Service) { s.configURL = URL }
}

// WithCommand sets the command template every input line is appended to.
func WithCommand(command ...string) Option {
	return func(s *Service) { s.command = command }
}

// WithSlots overrides the configured slot layout.
func WithSlots(spec string) Option {
	return func(s *Service) { s.slots = spec }
}

// WithInput sets the line source; default is standard input.
func WithInput(input io.Reader) Option {
	return func(s *Service) { s.input = input }
}

// WithStdout sets the writer jobs inherit as standard output.
func WithStdout(w io.Writer) Option {
	return func(s *Service) { s.stdout = w }
}

// WithStderr sets the writer jobs inherit as standard error; diagnostics go
// there too unless WithLogger overrides them.
func WithStderr(w io.Writer) Option {
	return func(s *Service) { s.stderr = w }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDialer overrides how remote hosts are probed.
func WithDialer(dialer prober.Dialer) Option {
	return func(s *Service) { s.dialer = dialer }
}

// WithMirrorOptions passes extra options to the working-directory mirror.
func WithMirrorOptions(options ...mirror.Option) Option {
	return func(s *Service) {
		s.mirrorOptions = append(s.mirrorOptions, options...)
	}
}

// WithPolicy sets the admission policy consulted before each job starts.
func WithPolicy(aPolicy *policy.Policy) Option {
	return func(s *Service) { s.policy = aPolicy }
}

// WithTracing enables span export for this process. An empty output selects
// standard output; otherwise spans are appended to the named file. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, output string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, output)
	}
}

// WithTracingExporter enables span export through a custom OpenTelemetry
// exporter such as OTLP or Zipkin. The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
