// Package tasks runs the WordPress import pipeline with real-time progress reporting.
//
// # Tasks
//
// [Engine] exposes one method per batch job:
//
//  1. [Engine.ImportArtists] and [Engine.ImportNews] : stream a wp/v2 collection page by page,
//     relocate featured images, upsert by slug
//  2. [Engine.ImportSubscribers] : copy legacy subscribers not yet in the store, mapping groups to categories
//  3. [Engine.ImportFeedback] : decode serialized feedback per post and replace previously imported rows
//  4. [Engine.Dedupe] : plan duplicate clusters by canonical email, merge them with --apply
//  5. [Engine.RewriteNewsImages] : relocate <img> tags in stored news content that still hit the legacy host
//  6. [Engine.SyncInfluencers] : upsert an influencer for every subscriber in a category
//
// Every task is sequential. Reruns converge: upserts are keyed by natural keys and feedback is
// deleted and reinserted per post.
//
// # Progress Reporting
//
// Tasks log "Imported N/M" lines and send [ProgressUpdate] values on an optional channel. Updates use
// select with default so a slow reader never blocks a task.
//
// # Journal
//
// Each task execution is recorded in import_runs with its counts and final status; [Engine.Runs]
// lists them.
package tasks
