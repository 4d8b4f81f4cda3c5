package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running task.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Task phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Task phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	ImportRecords
	ReadLegacy
	PlanMerges
	MergeClusters
	RewriteImages
	SyncRecords
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case ImportRecords:
		return "import_records"
	case ReadLegacy:
		return "read_legacy"
	case PlanMerges:
		return "plan_merges"
	case MergeClusters:
		return "merge_clusters"
	case RewriteImages:
		return "rewrite_images"
	case SyncRecords:
		return "sync_records"
	default:
		return ""
	}
}

func fetchPageUpdate(collection string, page, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    page,
		Message: fmt.Sprintf("Fetched %s page %d (%d items)", collection, page, items),
	}
}

func importedUpdate(step, total int, key string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Imported %s", progressCount(step, total)),
		Data:    key,
	}
}

func readLegacyUpdate(what string, rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadLegacy,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d %s from the legacy database", rows, what),
	}
}

func planUpdate(clusters, subscribers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanMerges,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d duplicate clusters among %d subscribers", clusters, subscribers),
	}
}

func mergedUpdate(step, total int, key string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeClusters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] merged %s", step, total, key),
		Data:    key,
	}
}

func rewriteUpdate(step, total int, slug string, relocated int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RewriteImages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d images relocated", step, total, slug, relocated),
		Data:    slug,
	}
}

func syncUpdate(step, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, email),
		Data:    email,
	}
}

func progressCount(step, total int) string {
	if total > 0 {
		return fmt.Sprintf("%d/%d", step, total)
	}
	return fmt.Sprintf("%d", step)
}
