// Package ui renders task progress and summaries for the terminal with lipgloss.
//
// A [Progress] drains the [tasks.ProgressUpdate] channel a task writes to and prints one line per
// update, prefixed with its phase:
//
//	[fetch] Fetched artists page 1 (100 items)
//	[import 25/140] Imported 25/140: dj-dread
//
// [Summary] prints the closing counts, highlighting image and feedback fallbacks.
package ui
