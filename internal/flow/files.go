package flow

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// DefaultExtensions are the flow file extensions picked up from a directory
// when none are configured.
var DefaultExtensions = []string{".txt", ".puml", ".plantuml", ".seq"}

// ListFiles walks dir and returns the regular files whose extension is in
// exts, sorted by path. Hidden files and directories are skipped. An empty
// exts matches every file.
func ListFiles(dir string, exts []string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(want) > 0 && !want[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list flow files in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ParseFiles parses paths concurrently with at most limit files in flight
// (no limit when limit <= 0). Processes are returned in input order and
// within a file in section order. The first failing file cancels the rest.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, limit int) ([]model.Process, error) {
	perFile := make([][]model.Process, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			procs, err := p.ParseFile(path)
			if err != nil {
				return err
			}
			perFile[i] = procs
			p.logger.Debug("parsed flow file", "source", path, "processes", len(procs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Process
	for _, procs := range perFile {
		out = append(out, procs...)
	}
	return out, nil
}

// CheckUnique fails when two processes share a full name.
func CheckUnique(processes []model.Process) error {
	seen := make(map[string]string, len(processes))
	for _, p := range processes {
		if first, ok := seen[p.FullName]; ok {
			return &model.DuplicateProcessNameError{Name: p.FullName, First: first, Second: p.Source}
		}
		seen[p.FullName] = p.Source
	}
	return nil
}
