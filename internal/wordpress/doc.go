// Package wordpress reads the label's legacy WordPress site through its wp/v2 REST API.
//
// [Client.Each] pages through a collection (artists, news) with featured media embedded and hands each
// page to a callback, so a run holds one page in memory at a time. [Client.FetchAll] accumulates the
// pages for callers that want the whole list.
//
// Pagination stops on the first short page, empty page, or HTTP 400/404 (WordPress's answer to a page
// past the end). Any other non-2xx status aborts the run with [shared.ErrAPIRequest].
//
// [DecodeEntities] undoes the entity encoding WordPress applies to rendered titles. It covers numeric
// references and the five XML entities only.
package wordpress
