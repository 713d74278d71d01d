// Package forkly dispatches one command invocation per input line over a
// fixed table of execution slots, locally and over secure shell.
//
// A slot layout such as "2,worker1:/data" declares the table: two local
// slots plus one on worker1 running in /data. Lines are admitted in input
// order; each goes to the lowest-numbered idle slot, with the whole line
// appended to the command as a single argument. The main layers are:
//
//   - layout     – slot layout parsing
//   - prober     – remote reachability checks, deduplicated per host
//   - dispatcher – admission, reaping and drain
//   - launcher   – child processes and remote shell argument escaping
//   - mirror     – best-effort working-directory sync around the run
//
// End-users typically interact via the Service façade exposed by the root
// package:
//
//	srv := forkly.New(
//		forkly.WithSlots("4"),
//		forkly.WithCommand("gzip", "-9"),
//		forkly.WithInput(os.Stdin))
//	err := srv.Run(ctx)
//	os.Exit(forkly.ExitCode(err))
//
// The forkly command under cmd/forkly wraps the same façade for shell use.
package forkly

// Version is reported in trace metadata and by the command line front end.
const Version = "0.1.0"
