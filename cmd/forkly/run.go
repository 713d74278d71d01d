package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/forkly"
	"github.com/viant/forkly/policy"
)

func run(cmd *cobra.Command, args []string) int {
	ctx := cmd.Context()
	config, err := resolveConfig(ctx, cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forkly: %v\n", err)
		return forkly.ExitCode(err)
	}
	applyFlags(cmd, config)

	options := []forkly.Option{
		forkly.WithConfig(config),
		forkly.WithCommand(args...),
	}
	admission, err := resolvePolicy(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forkly: %v\n", err)
		return forkly.StatusUsage
	}
	if admission != nil {
		options = append(options, forkly.WithPolicy(admission))
	}
	if inputPath, _ := cmd.Flags().GetString("input"); inputPath != "" {
		input, err := openInput(ctx, inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "forkly: cannot open input %s: %v\n", inputPath, err)
			return forkly.StatusUsage
		}
		defer input.Close()
		options = append(options, forkly.WithInput(input))
	}
	srv := forkly.New(options...)

	if plan, _ := cmd.Flags().GetBool("mirror-plan"); plan {
		text, err := srv.MirrorPlan(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "forkly: %v\n", err)
			return forkly.ExitCode(err)
		}
		fmt.Print(text)
		return forkly.StatusOK
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "forkly: command is required")
		_ = cmd.Usage()
		return forkly.StatusUsage
	}
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "forkly: %v\n", err)
		return forkly.ExitCode(err)
	}
	return forkly.StatusOK
}

// openInput opens the line source named by --input: a plain path directly,
// anything with a scheme through the storage service.
func openInput(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.Contains(location, "://") {
		return os.Open(location)
	}
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// resolvePolicy translates --interactive and --dry-run into an admission
// policy; nil means every job runs.
func resolvePolicy(cmd *cobra.Command) (*policy.Policy, error) {
	interactive, _ := cmd.Flags().GetBool("interactive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	switch {
	case interactive && dryRun:
		return nil, fmt.Errorf("--interactive and --dry-run cannot be used together")
	case interactive:
		ask, err := askTerminal()
		if err != nil {
			return nil, err
		}
		return &policy.Policy{Mode: policy.ModeAsk, Ask: ask}, nil
	case dryRun:
		return &policy.Policy{Mode: policy.ModeAsk, Ask: echoJob}, nil
	}
	return nil, nil
}

// askTerminal prompts on the controlling terminal before each job. Replies
// come from /dev/tty because standard input carries the line stream.
func askTerminal() (policy.AskFunc, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("cannot prompt without a terminal: %v", err)
	}
	replies := bufio.NewReader(tty)
	return func(ctx context.Context, location string, argv []string, _ *policy.Policy) bool {
		fmt.Fprintf(os.Stderr, "%s ?... ", strings.Join(argv, " "))
		reply, err := replies.ReadString('\n')
		if err != nil {
			return false
		}
		reply = strings.TrimSpace(reply)
		return reply == "y" || reply == "Y" || strings.EqualFold(reply, "yes")
	}, nil
}

// echoJob prints the job instead of running it.
func echoJob(ctx context.Context, location string, argv []string, _ *policy.Policy) bool {
	fmt.Println(strings.Join(argv, " "))
	return false
}

// resolveConfig loads the configuration document when --config is given,
// otherwise starts from package defaults.
func resolveConfig(ctx context.Context, cmd *cobra.Command) (*forkly.Config, error) {
	if URL, _ := cmd.Flags().GetString("config"); URL != "" {
		return forkly.LoadConfig(ctx, URL)
	}
	return forkly.DefaultConfig(), nil
}

// applyFlags lays explicitly set flags over the configuration, so config
// documents and environment defaults survive unset ones.
func applyFlags(cmd *cobra.Command, config *forkly.Config) {
	flags := cmd.Flags()
	if flags.Changed("slots") {
		config.Slots, _ = flags.GetString("slots")
	}
	if flags.Changed("keep-going") {
		config.KeepGoing, _ = flags.GetBool("keep-going")
	}
	if flags.Changed("verbose") {
		config.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("skip-probe") {
		config.SkipProbe, _ = flags.GetBool("skip-probe")
	}
	if flags.Changed("trace") {
		config.Trace, _ = flags.GetString("trace")
	}
	if flags.Changed("secrets") {
		config.Secrets, _ = flags.GetString("secrets")
	}
	if flags.Changed("remote-shell") {
		config.RemoteShell, _ = flags.GetString("remote-shell")
	}
	if flags.Changed("mirror") {
		config.Mirror.Enabled, _ = flags.GetBool("mirror")
	}
	if flags.Changed("mirror-dir") {
		config.Mirror.Dir, _ = flags.GetString("mirror-dir")
	}
}
