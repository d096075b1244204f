// Package assets defines the key-value asset store the router reads from.
// Keys are exact asset paths ("index.html", "assets/app.js"); a lookup yields
// the raw content plus metadata (content type, cache control) or ErrNotFound.
// The filesystem backend maps keys onto <AssetsPath>/<key> and keeps optional
// metadata in a "<key>.meta.yaml" sidecar written alongside the content.
package assets
