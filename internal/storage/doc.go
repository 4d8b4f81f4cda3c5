// Package storage relocates images from the legacy CMS into S3-compatible object storage.
//
// [Relocator] downloads a source image and uploads it through an [ObjectStore] under a deterministic
// key, {entityType}/{slug}/{filename} for featured images and {entityType}/{slug}/content/{filename}
// for images embedded in HTML. Every failure is soft: the caller gets the original URL back and the
// run continues. With no store configured the relocator performs no requests at all.
//
// [R2Store] implements [ObjectStore] on the AWS SDK's S3 client, pointed at a Cloudflare R2 endpoint.
package storage
