// Package pipeline runs one batch transformation: catalogue and flow files
// in, architecture model and renderer hand-off files out.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/catalogue"
	"github.com/dusk-indust/architecturizr/internal/ctxlog"
	"github.com/dusk-indust/architecturizr/internal/export"
	"github.com/dusk-indust/architecturizr/internal/flow"
	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/relation"
	"github.com/dusk-indust/architecturizr/internal/workspace"
)

// Export formats and the file each one writes to the output directory.
const (
	FormatJSON    = "json"
	FormatDSL     = "dsl"
	FormatMermaid = "mermaid"
)

var formatFiles = map[string]string{
	FormatJSON:    "workspace.json",
	FormatDSL:     "workspace.dsl",
	FormatMermaid: "model.mmd",
}

// OutputFile returns the file name a format is written to.
func OutputFile(format string) (string, bool) {
	name, ok := formatFiles[format]
	return name, ok
}

// Config configures a run. Relative paths resolve against ProjectRoot.
type Config struct {
	ProjectRoot string
	// Catalogue is a local path, s3://bucket/key or http(s) URL.
	Catalogue  string
	FlowsDir   string
	Extensions []string
	// OutputDir receives one file per format. Empty skips the export stage.
	OutputDir string
	Formats   []string
	OwnerTag  string
	// Concurrency bounds parallel flow parsing; <= 0 means unbounded.
	Concurrency int
	S3          catalogue.S3Config
	// Graph, when set, receives the workspace. The caller owns and closes it.
	Graph graph.Store
}

// Result is the model produced by a run.
type Result struct {
	Hierarchy     *model.Hierarchy
	Processes     []model.Process
	Relationships *relation.Result
	Workspace     *workspace.Workspace
	// Files lists the written output files in format order.
	Files []string
}

// Pipeline executes runs and reports their progress.
type Pipeline struct {
	cfg      Config
	progress *ProgressReporter
}

// New creates a Pipeline for cfg.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, progress: NewProgressReporter()}
}

// Progress returns a channel that emits progress events. It is closed by
// Close.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close releases the progress channel.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// Run executes a single run with cfg, discarding progress events.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	p := New(cfg)
	defer p.Close()
	return p.Run(ctx)
}

// Run executes every stage in order and stops at the first failure. The
// failing stage's error is returned unchanged apart from wrapping.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	res = &Result{}

	var local string
	cleanup := func() error { return nil }
	if err = p.stage(ctx, StageFetch, func() error {
		var ferr error
		local, cleanup, ferr = catalogue.Fetch(ctx, p.resolveLocation(p.cfg.Catalogue), p.cfg.S3)
		return ferr
	}); err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, cleanup()) }()

	var cat *catalogue.Catalogue
	if err = p.stage(ctx, StageRead, func() (serr error) {
		cat, serr = catalogue.Read(local)
		return serr
	}); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, StageHierarchy, func() (serr error) {
		res.Hierarchy, serr = catalogue.Build(cat.Rows)
		return serr
	}); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, StageParse, func() error {
		return p.parse(ctx, res)
	}); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, StageAggregate, func() (serr error) {
		res.Relationships, serr = relation.Aggregate(ctx, res.Hierarchy, res.Processes)
		return serr
	}); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, StageWorkspace, func() (serr error) {
		res.Workspace, serr = workspace.Build(ctx, cat.Title, cat.Description, res.Hierarchy,
			res.Processes, res.Relationships.All, workspace.Options{OwnerTag: p.cfg.OwnerTag})
		return serr
	}); err != nil {
		return nil, err
	}

	if p.cfg.Graph == nil {
		p.skip(StageGraph)
	} else if err = p.stage(ctx, StageGraph, func() error {
		return graph.Load(ctx, p.cfg.Graph, res.Workspace)
	}); err != nil {
		return nil, err
	}

	if p.cfg.OutputDir == "" || len(p.cfg.Formats) == 0 {
		p.skip(StageExport)
	} else if err = p.stage(ctx, StageExport, func() error {
		return p.export(ctx, res)
	}); err != nil {
		return nil, err
	}

	logger.Info("model built",
		"elements", len(res.Workspace.Elements),
		"processes", len(res.Processes),
		"direct", len(res.Relationships.Direct),
		"implied", len(res.Relationships.Implied),
		"views", len(res.Workspace.Views),
	)
	return res, nil
}

func (p *Pipeline) validate() error {
	if strings.TrimSpace(p.cfg.Catalogue) == "" {
		return fmt.Errorf("no catalogue configured")
	}
	for _, f := range p.cfg.Formats {
		if _, ok := formatFiles[f]; !ok {
			return fmt.Errorf("unknown export format %q", f)
		}
	}
	return nil
}

// stage runs fn as stage s, reporting its progress.
func (p *Pipeline) stage(ctx context.Context, s Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.progress.Emit(ProgressEvent{Stage: s, Section: s.String(), Status: ProgressWorking})
	if err := fn(); err != nil {
		p.progress.Emit(ProgressEvent{Stage: s, Section: s.String(), Status: ProgressFailed, Message: err.Error()})
		return fmt.Errorf("%s: %w", s, err)
	}
	p.progress.Emit(ProgressEvent{Stage: s, Section: s.String(), Status: ProgressComplete})
	return nil
}

func (p *Pipeline) skip(s Stage) {
	p.progress.Emit(ProgressEvent{Stage: s, Section: s.String(), Status: ProgressSkipped})
}

func (p *Pipeline) parse(ctx context.Context, res *Result) error {
	logger := ctxlog.FromContext(ctx)

	exts := p.cfg.Extensions
	if len(exts) == 0 {
		exts = flow.DefaultExtensions
	}
	files, err := flow.ListFiles(p.resolve(p.cfg.FlowsDir), exts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no flow files found", "dir", p.cfg.FlowsDir, "extensions", exts)
	}

	parser := flow.NewParser(res.Hierarchy, logger)
	procs, err := parser.ParseFiles(ctx, files, p.cfg.Concurrency)
	if err != nil {
		return err
	}
	if err := flow.CheckUnique(procs); err != nil {
		return err
	}
	res.Processes = procs
	return nil
}

func (p *Pipeline) export(ctx context.Context, res *Result) error {
	dir := p.resolve(p.cfg.OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, format := range p.cfg.Formats {
		path := filepath.Join(dir, formatFiles[format])
		var write func(io.Writer) error
		switch format {
		case FormatJSON:
			write = func(w io.Writer) error { return export.WriteJSON(w, res.Workspace) }
		case FormatDSL:
			write = func(w io.Writer) error { return export.WriteDSL(w, res.Workspace) }
		case FormatMermaid:
			chart, err := p.mermaid(ctx, res.Workspace)
			if err != nil {
				return err
			}
			write = func(w io.Writer) error {
				_, err := io.WriteString(w, chart)
				return err
			}
		}
		if err := writeFile(path, write); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
		ctxlog.FromContext(ctx).Debug("wrote output", "format", format, "path", path)
	}
	return nil
}

// mermaid renders from the configured graph, or from an in-memory graph of
// ws when none is configured.
func (p *Pipeline) mermaid(ctx context.Context, ws *workspace.Workspace) (string, error) {
	store := p.cfg.Graph
	if store == nil {
		mem := graph.NewMemStore()
		if err := graph.Load(ctx, mem, ws); err != nil {
			return "", err
		}
		store = mem
	}
	return export.GenerateMermaid(ctx, store, model.KindComponent)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (p *Pipeline) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.cfg.ProjectRoot == "" {
		return path
	}
	return filepath.Join(p.cfg.ProjectRoot, path)
}

// resolveLocation resolves local catalogue paths and leaves URLs alone.
func (p *Pipeline) resolveLocation(loc string) string {
	if strings.Contains(loc, "://") {
		return loc
	}
	return p.resolve(loc)
}
