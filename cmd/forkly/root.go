package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/forkly"
)

var rootCmd = &cobra.Command{
	Use:   "forkly [flags] command [args...]",
	Short: "Run a command once per input line across local and remote slots",
	Long: `Forkly reads lines from standard input (or a file) and runs the given
command once per line, appending the whole line as a single argument. Jobs
run in parallel across a fixed table of slots: local processes or secure
shell sessions on remote hosts, declared with --slots.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run(cmd, args))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(forkly.StatusUsage)
	}
}

func init() {
	flags := rootCmd.Flags()
	// Everything after the command word belongs to the command.
	flags.SetInterspersed(false)
	flags.StringP("slots", "s", "", `slot layout, e.g. "2,worker1:/data" (default $FORKLY_SLOTS)`)
	flags.BoolP("keep-going", "k", false, "keep admitting lines after a job fails")
	flags.BoolP("verbose", "v", false, "echo dispatch and reap events")
	flags.BoolP("interactive", "p", false, "prompt on the terminal before each job")
	flags.Bool("dry-run", false, "print each job instead of running it")
	flags.Bool("skip-probe", false, "assume remote hosts are reachable")
	flags.StringP("input", "i", "", "read lines from a file or URL instead of standard input")
	flags.StringP("trace", "t", "", `write run traces to a file, "-" for standard output`)
	flags.Bool("mirror", false, "sync working directories before and after the run")
	flags.String("mirror-dir", "", `local tree the mirror pushes and pulls (default ".")`)
	flags.Bool("mirror-plan", false, "print what the mirror would change, then exit")
	flags.String("secrets", "", "secret resource for remote credentials")
	flags.String("config", "", "URL of a YAML run configuration")
	flags.String("remote-shell", "", `remote shell binary (default "ssh")`)
}
