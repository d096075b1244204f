// Package server hosts the Fiber HTTP service, the request middleware chain,
// and the site registry that maps Host headers onto per-site resolvers.
// NewApp attaches recover, request-ID and host-lookup middlewares and hands
// every routed request to a SiteHandler; Handler is the default SiteHandler
// that runs router.Resolver and writes the resulting response to the wire.
// Keep exports narrow and accept explicit dependencies; cmd wiring lives in
// the root main package.
package server
