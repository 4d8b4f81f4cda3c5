// Package models defines the entities written by the labelsync import pipeline.
//
// The package contains two categories of types:
//
// 1. Catalog content imported from the WordPress REST API
//   - [Artist] : label roster entry keyed by slug
//   - [News] : news post keyed by slug, possibly embedding legacy image URLs
//
// 2. Audience data imported from the legacy WordPress database
//   - [Subscriber] : newsletter recipient keyed by email
//   - [Category] : label-assigned grouping mapped from legacy group names
//   - [Influencer] : promoter contact derived from subscribers, keyed by lowercased email
//   - [DemoFeedback] : one feedback entry extracted from a serialized postmeta blob
//
// [ImportRun] journals each task execution.
//
// Every entity implements [Model]; validation failures wrap [shared.ErrValidation].
package models
