package pipeline

import "fmt"

// Stage identifies a step of a run.
type Stage int

const (
	StageFetch Stage = iota
	StageRead
	StageHierarchy
	StageParse
	StageAggregate
	StageWorkspace
	StageGraph
	StageExport
)

func (s Stage) String() string {
	names := [...]string{
		"fetch-catalogue",
		"read-catalogue",
		"build-hierarchy",
		"parse-flows",
		"aggregate-relationships",
		"assemble-workspace",
		"persist-graph",
		"export",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ProgressEvent is emitted while a run executes.
type ProgressEvent struct {
	Stage   Stage
	Section string
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a section within a stage.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Section)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Section)
	case ProgressComplete:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s complete (%s)", event.Section, event.Message)
		}
		return fmt.Sprintf("  ✓ %s complete", event.Section)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s skipped", event.Section)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Section, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Section)
	}
}
