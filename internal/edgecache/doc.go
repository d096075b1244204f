// Package edgecache holds previously synthesized responses keyed by the
// original request. The router consults it before touching the asset store and
// writes every synthesized response back through it. Retention is owned by the
// backend (a bounded in-memory map or a LevelDB directory); callers never evict
// entries explicitly, a later Put for the same Key simply replaces the old one.
package edgecache
