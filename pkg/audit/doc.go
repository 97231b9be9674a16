// Package audit publishes one event per keyword call to a durable log.
//
// Publishers own their resources and must be closed exactly once. The
// Observer adapts a Publisher to keywords.Observer; it publishes in the
// background so a slow or failing backend never fails a keyword.
package audit
