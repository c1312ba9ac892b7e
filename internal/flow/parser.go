// Package flow parses interaction-flow text files into processes. A file is
// scanned line by line against an ordered rule table; section markers split
// one file into several processes.
package flow

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// Parser turns flow files into processes. Element keys are resolved against
// a frozen hierarchy; the parser never mutates it and may be shared by
// concurrent parses.
type Parser struct {
	elements *model.Hierarchy
	logger   *slog.Logger
}

// NewParser creates a Parser resolving keys against elements. A nil logger
// uses slog.Default().
func NewParser(elements *model.Hierarchy, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{elements: elements, logger: logger}
}

// state is the running scan of one file.
type state struct {
	parser  *Parser
	logger  *slog.Logger
	source  string
	base    string // file name without extension, used when no title is set
	line    int    // 0-indexed, as reported in SyntaxError
	title   string
	current *model.Process
	section string
	out     []model.Process
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) ([]model.Process, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flow file: %w", err)
	}
	defer f.Close()
	return p.Parse(path, f)
}

// Parse scans r, naming errors and processes after source. It returns every
// process of the file in order, or the first error; a failing file yields no
// processes.
func (p *Parser) Parse(source string, r io.Reader) ([]model.Process, error) {
	st := &state{
		parser: p,
		logger: p.logger,
		source: source,
		base:   strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
	}
	st.current = &model.Process{Source: source}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 0; scanner.Scan(); n++ {
		st.line = n
		if err := st.classify(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	st.close()
	return st.out, nil
}

// classify applies the first rule matching line.
func (st *state) classify(line string) error {
	line = strings.TrimSuffix(line, "\r")
	for _, r := range rules {
		m := r.match(line)
		if m == nil {
			continue
		}
		return r.apply(st, m)
	}
	return &model.SyntaxError{File: st.source, Line: st.line, Text: line}
}

// runningTitle is the title set so far, falling back to the file name.
func (st *state) runningTitle() string {
	if st.title != "" {
		return st.title
	}
	return st.base
}

// startSection closes the current process if it has steps and starts a new
// one named after the running title and the section.
func (st *state) startSection(name string) {
	if len(st.current.Steps) > 0 {
		st.close()
	}
	st.section = name
	title := st.runningTitle()
	st.current = &model.Process{
		Name:     title,
		FullName: fmt.Sprintf("%s - %s", title, name),
		Source:   st.source,
	}
}

// close appends the current process to the output. A process outside any
// section takes the running title as its name when it is closed.
func (st *state) close() {
	p := *st.current
	if st.section == "" {
		p.Name = st.runningTitle()
		p.FullName = p.Name
	}
	st.out = append(st.out, p)
}

// addStep resolves both endpoints and appends the step to the current
// process. Unknown keys abort the parse.
func (st *state) addStep(s model.Step) error {
	for _, key := range []string{s.From, s.To} {
		if _, err := st.parser.elements.Resolve(key); err != nil {
			return fmt.Errorf("%s:%d: %w", st.source, st.line, err)
		}
	}
	if s.Description == "" {
		st.logger.Warn("step description is empty, it may show erroneously on diagrams",
			"source", st.source, "line", st.line, "from", s.From, "to", s.To)
	}
	st.current.Steps = append(st.current.Steps, s)
	return nil
}
