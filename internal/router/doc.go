// Package router resolves one request into one response for a static site.
//
// Resolution runs in a fixed order: the asset path is derived from the URL,
// the edge cache is consulted (a hit requires the cached ETag to equal the
// manifest fingerprint of that path), and on a miss the asset store is queried
// along the fallback chain primary → error page | index page → "Page Not
// Found". Every synthesized response except the terminal 404 is written back
// to the edge cache under the original request key.
//
// Absence is never an error here. Errors returned by Resolve always come from
// the asset store or the edge cache and are left to the caller.
package router
