package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

func runStatus(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	var flags commonFlags
	fs := flag.NewFlagSet("architecturizr status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags.register(fs)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	e, err := flags.setup(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	store, err := e.loadModel()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	stats, err := store.Stats(e.ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	procs, err := store.GetProcesses(e.ctx)
	if err != nil {
		return fmt.Errorf("get processes: %w", err)
	}

	fmt.Fprintf(stdout, "Elements:      %d\n", stats.ElementCount)
	fmt.Fprintf(stdout, "  actors       %d\n", stats.ActorCount)
	fmt.Fprintf(stdout, "  systems      %d\n", stats.SystemCount)
	fmt.Fprintf(stdout, "  containers   %d\n", stats.ContainerCount)
	fmt.Fprintf(stdout, "  components   %d\n", stats.ComponentCount)
	fmt.Fprintf(stdout, "Relationships: %d\n", stats.RelationshipCount)
	fmt.Fprintf(stdout, "Processes:     %d\n", stats.ProcessCount)

	for _, p := range procs {
		fmt.Fprintf(stdout, "  - %s (%d steps, %s)\n", p.FullName, p.StepCount, p.Source)
	}
	return nil
}
