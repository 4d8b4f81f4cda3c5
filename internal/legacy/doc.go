// Package legacy reads subscribers and demo feedback straight out of the legacy WordPress MySQL
// database.
//
// [MySQLSource] implements [Source] over one connection opened from configuration. Feedback lives in
// wp_postmeta as PHP-serialized arrays; [DecodeFeedback] turns each blob into [Entry] values,
// resolving loosely named fields through ordered alias lists and marking anything it cannot read as
// Unrecognized with the raw value kept as JSON.
//
// [MapGroup] maps free-text legacy group names onto the label's categories.
package legacy
