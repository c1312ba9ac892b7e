package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
)

const maxListed = 8

// runDescribe prints markdown context for the elements matching a key or
// name pattern, meant to be pasted into a prompt or a review. Prints
// nothing when there is no model or no match.
func runDescribe(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var flags commonFlags
	fs := flag.NewFlagSet("architecturizr describe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags.register(fs)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("describe takes exactly one pattern")
	}
	pattern := fs.Arg(0)

	e, err := flags.setup(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	store, err := e.loadModel()
	if errors.Is(err, errNoModel) {
		return nil
	}
	if err != nil {
		return err
	}
	defer store.Close()

	elements, err := store.QueryElements(e.ctx, pattern, 10)
	if err != nil || len(elements) == 0 {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Model context for %q\n\n", pattern)
	sb.WriteString("**Elements found:**\n")
	for _, el := range elements {
		fmt.Fprintf(&sb, "- `%s` %s %q", el.Key, el.Kind, el.Name)
		if el.Parent != "" {
			fmt.Fprintf(&sb, " in `%s`", el.Parent)
		}
		if el.Technology != "" {
			fmt.Fprintf(&sb, " [%s]", el.Technology)
		}
		if el.Deprecated {
			sb.WriteString(" (deprecated)")
		}
		sb.WriteString("\n")
	}

	primary := elements[0].Key
	if upstream, err := store.GetDependencies(e.ctx, primary, graph.DirectionUpstream, 2); err == nil && len(upstream) > 0 {
		fmt.Fprintf(&sb, "\n**Used by (upstream of `%s`):**\n", primary)
		writeChainEnds(&sb, upstream)
	}
	if downstream, err := store.GetDependencies(e.ctx, primary, graph.DirectionDownstream, 2); err == nil && len(downstream) > 0 {
		fmt.Fprintf(&sb, "\n**Uses (downstream of `%s`):**\n", primary)
		writeChainEnds(&sb, downstream)
	}

	if rels, err := store.GetRelationships(e.ctx, primary, graph.DirectionBoth); err == nil && len(rels) > 0 {
		sb.WriteString("\n**Relationships:**\n")
		for _, r := range rels {
			arrow := "->"
			if r.Style == model.Asynchronous {
				arrow = "-)"
			}
			fmt.Fprintf(&sb, "- `%s` %s `%s`: %s\n", r.Source, arrow, r.Destination, strings.ReplaceAll(r.Description, "\n", "; "))
		}
	}

	if procs, err := store.GetProcesses(e.ctx); err == nil {
		var names []string
		for _, p := range procs {
			for _, key := range p.Elements {
				if key == primary {
					names = append(names, p.FullName)
					break
				}
			}
		}
		if len(names) > 0 {
			sb.WriteString("\n**Processes:**\n")
			for _, n := range names {
				fmt.Fprintf(&sb, "- %s\n", n)
			}
		}
	}

	_, err = io.WriteString(stdout, sb.String())
	return err
}

func writeChainEnds(sb *strings.Builder, chains []graph.DependencyChain) {
	shown := 0
	for _, c := range chains {
		if len(c.Nodes) > 1 && shown < maxListed {
			fmt.Fprintf(sb, "- `%s` (depth %d)\n", c.Nodes[len(c.Nodes)-1], c.Depth)
			shown++
		}
	}
	if len(chains) > maxListed {
		fmt.Fprintf(sb, "- ... (%d more)\n", len(chains)-maxListed)
	}
}
