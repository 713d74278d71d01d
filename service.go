package forkly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/viant/forkly/internal/idgen"
	"github.com/viant/forkly/internal/lineio"
	"github.com/viant/forkly/model/slot"
	"github.com/viant/forkly/policy"
	"github.com/viant/forkly/progress"
	"github.com/viant/forkly/service/dispatcher"
	"github.com/viant/forkly/service/interrupt"
	"github.com/viant/forkly/service/launcher"
	"github.com/viant/forkly/service/layout"
	"github.com/viant/forkly/service/mirror"
	"github.com/viant/forkly/service/prober"
	"github.com/viant/forkly/tracing"
)

// Service wires the probe, mirror, dispatch and interrupt layers into one
// run facade.
type Service struct {
	config        *Config
	configURL     string
	command       []string
	slots         string
	input         io.Reader
	stdout        io.Writer
	stderr        io.Writer
	logger        *log.Logger
	dialer        prober.Dialer
	mirrorOptions []mirror.Option
	policy        *policy.Policy
}

// New creates a forkly service.
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
}

func (s *Service) ensureBaseSetup() {
	if s.input == nil {
		s.input = os.Stdin
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.logger == nil {
		s.logger = log.New(s.stderr, "", 0)
	}
}

// Run executes the whole pipeline: resolve the configuration, build the
// slot table, probe remote hosts, push the mirror, dispatch every input
// line and pull the mirror back. The returned error classifies the outcome
// for ExitCode.
func (s *Service) Run(ctx context.Context) (err error) {
	config, err := s.resolveConfig(ctx)
	if err != nil {
		return err
	}
	if config.Trace != "" {
		if err = tracing.Init("forkly", Version, config.Trace); err != nil {
			return fmt.Errorf("%w: cannot open trace output %s: %v", ErrInvalidConfig, config.Trace, err)
		}
	}
	ctx, span := tracing.StartSpan(ctx, "forkly.run", "SERVER")
	defer func() { tracing.EndSpan(span, err) }()

	if len(s.command) == 0 {
		return fmt.Errorf("%w: command is required", ErrInvalidConfig)
	}
	table, err := s.buildTable(config)
	if err != nil {
		return err
	}
	span.WithAttributes(map[string]string{"run.slots": strconv.Itoa(table.Len())})

	launch := launcher.New(table.Len(),
		launcher.WithStdout(s.stdout),
		launcher.WithStderr(s.stderr),
		launcher.WithLogger(s.logger))
	if err = launcher.Prime(table, s.command, config.RemoteShell); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err = s.probe(ctx, config, table); err != nil {
		return err
	}

	var sync *mirror.Service
	if config.Mirror.Enabled {
		sync = s.newMirror(config)
		if err = sync.Validate(table); err != nil {
			return err
		}
		if err = sync.Push(ctx, table); err != nil {
			return err
		}
	}

	err = s.dispatch(ctx, config, table, launch)

	// Results are pulled back even after job failures; only bookkeeping
	// defects leave the table in a state not worth mirroring.
	if sync != nil && !errors.Is(err, dispatcher.ErrInternal) {
		if pullErr := sync.Pull(ctx, table); pullErr != nil {
			s.logger.Printf("forkly: mirror: pull skipped: %v", pullErr)
		}
	}
	return err
}

// MirrorPlan reports how each remote working directory differs from the
// mirror source, without copying anything. It works even when the mirror is
// disabled for regular runs.
func (s *Service) MirrorPlan(ctx context.Context) (string, error) {
	config, err := s.resolveConfig(ctx)
	if err != nil {
		return "", err
	}
	table, err := s.buildTable(config)
	if err != nil {
		return "", err
	}
	sync := s.newMirror(config)
	if err = sync.Validate(table); err != nil {
		return "", err
	}
	return sync.Plan(ctx, table)
}

// resolveConfig layers the explicit configuration over one loaded from a
// URL, then over the defaults, and validates the result.
func (s *Service) resolveConfig(ctx context.Context) (*Config, error) {
	config := s.config
	if config == nil && s.configURL != "" {
		loaded, err := LoadConfig(ctx, s.configURL)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// buildTable parses the slot layout into the run's slot table.
func (s *Service) buildTable(config *Config) (*slot.Table, error) {
	spec := s.slots
	if spec == "" {
		spec = config.Slots
	}
	descriptors, err := layout.Parse(spec)
	if err != nil {
		return nil, err
	}
	return slot.NewTable(descriptors), nil
}

// probe validates remote hosts unless configuration assumes them reachable.
func (s *Service) probe(ctx context.Context, config *Config, table *slot.Table) error {
	if config.SkipProbe {
		return nil
	}
	remote := false
	for _, aSlot := range table.Slots() {
		if !aSlot.IsLocal() {
			remote = true
			break
		}
	}
	if !remote {
		return nil
	}
	dialer := s.dialer
	if dialer == nil {
		dialer = prober.NewSSHDialer(config.Secrets)
	}
	return prober.New(prober.WithDialer(dialer), prober.WithLogger(s.logger)).Probe(ctx, table)
}

// dispatch runs the admission loop with the interrupt controller armed and
// a progress tracker attached to the context.
func (s *Service) dispatch(ctx context.Context, config *Config, table *slot.Table, launch *launcher.Service) error {
	interrupts := interrupt.New(launch, interrupt.WithLogger(s.logger))
	dispatch, err := dispatcher.New(table, launch,
		dispatcher.WithKeepGoing(config.KeepGoing),
		dispatcher.WithVerbose(config.Verbose),
		dispatcher.WithLogger(s.logger),
		dispatcher.WithInterrupts(interrupts))
	if err != nil {
		return fmt.Errorf("%w: %v", dispatcher.ErrInternal, err)
	}
	tracker := progress.New(idgen.New(), nil)
	ctx = progress.WithTracker(ctx, tracker)
	if s.policy != nil {
		ctx = policy.WithPolicy(ctx, s.policy)
	}
	interrupts.Arm()
	defer interrupts.Disarm()
	err = dispatch.Run(ctx, lineio.New(s.input))
	if config.Verbose {
		snap := tracker.Snapshot()
		s.logger.Printf("forkly: run %s: %d dispatched, %d completed, %d failed, %d skipped",
			snap.Run, snap.Dispatched, snap.Completed, snap.Failed, snap.Skipped)
	}
	return err
}

// newMirror builds the working-directory mirror; caller options come last
// so tests can override destination resolution.
func (s *Service) newMirror(config *Config) *mirror.Service {
	options := []mirror.Option{
		mirror.WithLogger(s.logger),
		mirror.WithResolver(mirror.NewSCPResolver(config.Secrets)),
	}
	options = append(options, s.mirrorOptions...)
	return mirror.New(config.Mirror.Dir, options...)
}
