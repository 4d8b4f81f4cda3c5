package ui

import (
	"fmt"
	"io"

	"github.com/dnbdoctor/labelsync/internal/tasks"
)

// Progress prints [tasks.ProgressUpdate] values as they arrive.
type Progress struct {
	w       io.Writer
	painter Painter
	done    chan struct{}
}

// NewProgress creates a Progress writing to w. A nil painter uses the default palette.
func NewProgress(w io.Writer, painter Painter) *Progress {
	if painter == nil {
		painter = styles
	}
	return &Progress{w: w, painter: painter, done: make(chan struct{})}
}

// Run prints updates until the channel is closed. Call it in its own goroutine and [Progress.Wait]
// after closing the channel.
func (p *Progress) Run(updates <-chan tasks.ProgressUpdate) {
	defer close(p.done)
	for update := range updates {
		fmt.Fprintln(p.w, p.Line(update))
	}
}

// Wait blocks until [Progress.Run] has drained its channel.
func (p *Progress) Wait() {
	<-p.done
}

// Line renders one update.
func (p *Progress) Line(update tasks.ProgressUpdate) string {
	label := PhaseLabel(update.Phase)
	if update.Total > 0 {
		label = fmt.Sprintf("%s %d/%d", label, update.Step, update.Total)
	}
	return fmt.Sprintf("%s %s", p.painter.Muted(label), update.Message)
}

// PhaseLabel names a task phase for display.
func PhaseLabel(phase tasks.Phase) string {
	switch phase {
	case tasks.FetchPages:
		return "[fetch]"
	case tasks.ImportRecords:
		return "[import]"
	case tasks.ReadLegacy:
		return "[legacy]"
	case tasks.PlanMerges:
		return "[plan]"
	case tasks.MergeClusters:
		return "[merge]"
	case tasks.RewriteImages:
		return "[images]"
	case tasks.SyncRecords:
		return "[sync]"
	default:
		return "[...]"
	}
}

// Summary renders the closing line of a task run.
func Summary(painter Painter, stats *tasks.Stats) string {
	if painter == nil {
		painter = styles
	}

	prefix := "✓ " + stats.Task
	if stats.DryRun {
		prefix += " (dry run)"
	}

	line := fmt.Sprintf("%s: %d created, %d updated, %d skipped, %d failed",
		prefix, stats.Created, stats.Updated, stats.Skipped, stats.Failed)

	var warnings string
	if stats.ImageFailures > 0 {
		warnings += "\n" + painter.Warning(fmt.Sprintf("  %d images kept their original URL", stats.ImageFailures))
	}
	if stats.Unrecognized > 0 {
		warnings += "\n" + painter.Warning(fmt.Sprintf("  %d feedback entries stored as raw JSON", stats.Unrecognized))
	}

	if stats.Failed > 0 {
		return painter.Warning(line) + warnings
	}
	return painter.Success(line) + warnings
}
