package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dnbdoctor/labelsync/internal/tasks"
)

// plain is a [Painter] that leaves text unstyled.
type plain struct{}

func (plain) Title(s string) string   { return s }
func (plain) Success(s string) string { return s }
func (plain) Error(s string) string   { return s }
func (plain) Warning(s string) string { return s }
func (plain) Muted(s string) string   { return s }

func TestProgress(t *testing.T) {
	t.Run("Line", func(t *testing.T) {
		p := NewProgress(&bytes.Buffer{}, plain{})
		tests := []struct {
			name   string
			update tasks.ProgressUpdate
			want   string
		}{
			{
				name:   "Without Total",
				update: tasks.ProgressUpdate{Phase: tasks.FetchPages, Step: 1, Message: "Fetched artists page 1"},
				want:   "[fetch] Fetched artists page 1",
			},
			{
				name:   "With Total",
				update: tasks.ProgressUpdate{Phase: tasks.ImportRecords, Step: 2, Total: 5, Message: "dj-dread"},
				want:   "[import 2/5] dj-dread",
			},
			{
				name:   "Unknown Phase",
				update: tasks.ProgressUpdate{Phase: tasks.Phase(99), Message: "x"},
				want:   "[...] x",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := p.Line(tt.update); got != tt.want {
					t.Errorf("Line() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("Run Drains Channel", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, plain{})
		updates := make(chan tasks.ProgressUpdate, 3)
		updates <- tasks.ProgressUpdate{Phase: tasks.PlanMerges, Message: "one"}
		updates <- tasks.ProgressUpdate{Phase: tasks.MergeClusters, Step: 1, Total: 1, Message: "two"}
		close(updates)

		go p.Run(updates)
		p.Wait()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
		}
		if lines[1] != "[merge 1/1] two" {
			t.Errorf("unexpected line %q", lines[1])
		}
	})
}

func TestSummary(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		got := Summary(plain{}, &tasks.Stats{Task: "artists", Created: 3, Updated: 1})
		if got != "✓ artists: 3 created, 1 updated, 0 skipped, 0 failed" {
			t.Errorf("unexpected summary %q", got)
		}
	})

	t.Run("Warnings", func(t *testing.T) {
		got := Summary(plain{}, &tasks.Stats{Task: "feedback", DryRun: true, Failed: 1, ImageFailures: 2, Unrecognized: 4})
		for _, want := range []string{"feedback (dry run)", "2 images kept their original URL", "4 feedback entries stored as raw JSON"} {
			if !strings.Contains(got, want) {
				t.Errorf("summary missing %q, got %q", want, got)
			}
		}
	})

	t.Run("Default Palette", func(t *testing.T) {
		got := Summary(nil, &tasks.Stats{Task: "news"})
		if !strings.Contains(got, "news") {
			t.Errorf("unexpected summary %q", got)
		}
	})
}
