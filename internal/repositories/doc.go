// Package repositories implements SQLite persistence for the import pipeline.
//
// Writes are keyed by each entity's natural key so that a rerun converges instead of duplicating:
//   - [ArtistRepository] and [NewsRepository] : upsert by slug, empty fields leave stored values alone
//   - [SubscriberRepository] : lookups by case-insensitive email, create-or-skip, and the dedup merge
//   - [CategoryRepository] : find-or-create by name
//   - [InfluencerRepository] : keyed by lowercased email
//   - [FeedbackRepository] : delete-then-insert of imported feedback per WordPress post
//   - [ImportRunRepository] : journal of task executions with sequence numbers
//
// [SubscriberRepository.MergeCluster] and [FeedbackRepository.ReplaceForPost] each run in a single
// transaction. The [NextSequence] function atomically increments per-table sequence counters.
package repositories
