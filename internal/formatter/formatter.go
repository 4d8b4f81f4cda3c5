// package formatter renders dedup plans, task stats, and the import run journal as text, Markdown, CSV, or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/dnbdoctor/labelsync/internal/tasks"
	"github.com/goccy/go-json"
)

// Format is an output format accepted by --format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every accepted format, in help order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// ToJSON marshals v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderPlan renders a dedupe result in format.
func RenderPlan(format Format, result *tasks.DedupeResult) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return PlanToMarkdown(result), nil
	case FormatCSV:
		return PlanToCSV(result.Clusters)
	case FormatJSON:
		return ToJSON(result)
	default:
		return PlanToText(result), nil
	}
}

// PlanToText lists each cluster with its primary first, then a summary line.
func PlanToText(result *tasks.DedupeResult) []byte {
	var buf bytes.Buffer

	for i, c := range result.Clusters {
		fmt.Fprintf(&buf, "%d. %s (%d rows)\n", i+1, c.Key, c.Size())
		fmt.Fprintf(&buf, "   keep   %s\n", describe(c.Primary))
		if target := c.TargetEmail(); target != c.Primary.Email {
			fmt.Fprintf(&buf, "   rename %s -> %s\n", c.Primary.Email, target)
		}
		for _, d := range c.Duplicates {
			fmt.Fprintf(&buf, "   merge  %s\n", describe(d))
		}
	}

	if len(result.Clusters) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString(summaryLine(result))
	return buf.Bytes()
}

// PlanToMarkdown renders the plan as a table per cluster.
func PlanToMarkdown(result *tasks.DedupeResult) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Subscriber dedupe plan\n\n")
	fmt.Fprintf(&buf, "**Clusters**: %d\n", result.Summary.Clusters)
	fmt.Fprintf(&buf, "**Duplicates**: %d\n", result.Summary.Duplicates)
	fmt.Fprintf(&buf, "**Email rewrites**: %d\n", result.Summary.Rewrites)
	fmt.Fprintf(&buf, "**Applied**: %s\n", yesNo(result.Applied))

	for _, c := range result.Clusters {
		fmt.Fprintf(&buf, "\n## %s\n\n", c.Key)
		buf.WriteString("| Role | Email | Status | Emails sent | Created |\n")
		buf.WriteString("|------|-------|--------|-------------|---------|\n")
		writeRow := func(role string, s models.Subscriber) {
			fmt.Fprintf(&buf, "| %s | %s | %s | %d | %s |\n",
				role, s.Email, s.Status, s.EmailCount, formatDate(s.CreatedAt))
		}
		writeRow("primary", c.Primary)
		for _, d := range c.Duplicates {
			writeRow("duplicate", d)
		}
		if target := c.TargetEmail(); target != c.Primary.Email {
			fmt.Fprintf(&buf, "\nPrimary email becomes `%s`.\n", target)
		}
	}

	return buf.Bytes()
}

// PlanToCSV writes one row per subscriber: Key, Role, ID, Email, Status, EmailCount, CreatedAt, TargetEmail
func PlanToCSV(clusters []dedup.Cluster) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Role", "ID", "Email", "Status", "EmailCount", "CreatedAt", "TargetEmail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range clusters {
		target := c.TargetEmail()
		rows := []models.Subscriber{c.Primary}
		rows = append(rows, c.Duplicates...)
		for i, s := range rows {
			role := "duplicate"
			if i == 0 {
				role = "primary"
			}
			record := []string{
				c.Key,
				role,
				s.ID,
				s.Email,
				string(s.Status),
				strconv.Itoa(s.EmailCount),
				formatDate(s.CreatedAt),
				target,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// StatsToText renders the counts of a finished task.
func StatsToText(stats *tasks.Stats) []byte {
	var buf bytes.Buffer

	title := stats.Task
	if stats.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&buf, "Task: %s\n", title)
	fmt.Fprintf(&buf, "Total: %d\n", stats.Total)
	fmt.Fprintf(&buf, "Created: %d\n", stats.Created)
	fmt.Fprintf(&buf, "Updated: %d\n", stats.Updated)
	fmt.Fprintf(&buf, "Skipped: %d\n", stats.Skipped)
	fmt.Fprintf(&buf, "Failed: %d\n", stats.Failed)
	if stats.ImageFailures > 0 {
		fmt.Fprintf(&buf, "Image failures: %d\n", stats.ImageFailures)
	}
	if stats.Unrecognized > 0 {
		fmt.Fprintf(&buf, "Unrecognized feedback: %d\n", stats.Unrecognized)
	}
	fmt.Fprintf(&buf, "Duration: %s\n", stats.Duration.Round(time.Millisecond))

	return buf.Bytes()
}

// CheckStatsFormat rejects formats task stats cannot be rendered in.
func CheckStatsFormat(format Format) error {
	if format == FormatCSV {
		return fmt.Errorf("%w: %s output is not available for task stats", shared.ErrInvalidFlag, format)
	}
	return nil
}

// RenderStats renders task stats in format. CSV is not supported for stats.
func RenderStats(format Format, stats *tasks.Stats) ([]byte, error) {
	if err := CheckStatsFormat(format); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return ToJSON(stats)
	}
	return StatsToText(stats), nil
}

// RenderRuns renders journal entries in format.
func RenderRuns(format Format, runs []*models.ImportRun) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return RunsToMarkdown(runs), nil
	case FormatCSV:
		return RunsToCSV(runs)
	case FormatJSON:
		return ToJSON(runs)
	default:
		return RunsToText(runs), nil
	}
}

// RunsToText renders one line per run.
func RunsToText(runs []*models.ImportRun) []byte {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No runs recorded\n")
		return buf.Bytes()
	}

	for _, r := range runs {
		fmt.Fprintf(&buf, "#%d %-16s %-9s imported=%d skipped=%d failed=%d total=%d %s",
			r.Sequence, runLabel(r), r.Status, r.Imported, r.Skipped, r.Failed, r.Total, formatTime(r.StartedAt))
		if r.ErrorMessage != "" {
			fmt.Fprintf(&buf, " error=%q", r.ErrorMessage)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// RunsToMarkdown renders runs as a table.
func RunsToMarkdown(runs []*models.ImportRun) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Import runs\n\n")
	buf.WriteString("| # | Task | Status | Imported | Skipped | Failed | Total | Started |\n")
	buf.WriteString("|---|------|--------|----------|---------|--------|-------|---------|\n")
	for _, r := range runs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %d | %d | %d | %d | %s |\n",
			r.Sequence, runLabel(r), r.Status, r.Imported, r.Skipped, r.Failed, r.Total, formatTime(r.StartedAt))
	}

	return buf.Bytes()
}

// RunsToCSV writes runs with columns: Sequence, Task, DryRun, Status, Total, Imported, Skipped, Failed, StartedAt, CompletedAt, Error
func RunsToCSV(runs []*models.ImportRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Task", "DryRun", "Status", "Total", "Imported", "Skipped", "Failed", "StartedAt", "CompletedAt", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range runs {
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(time.RFC3339)
		}
		record := []string{
			strconv.Itoa(r.Sequence),
			r.Task,
			strconv.FormatBool(r.DryRun),
			string(r.Status),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Imported),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
			r.StartedAt.Format(time.RFC3339),
			completed,
			r.ErrorMessage,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func describe(s models.Subscriber) string {
	return fmt.Sprintf("%s [%s, %d sent, since %s]", s.Email, s.Status, s.EmailCount, formatDate(s.CreatedAt))
}

func summaryLine(result *tasks.DedupeResult) string {
	verb := "would merge"
	if result.Applied {
		verb = "merged"
	}
	return fmt.Sprintf("%d clusters, %s %d duplicates, %d email rewrites\n",
		result.Summary.Clusters, verb, result.Summary.Duplicates, result.Summary.Rewrites)
}

func runLabel(r *models.ImportRun) string {
	if r.DryRun {
		return r.Task + "*"
	}
	return r.Task
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
