// Package keywords maps named automation keywords onto IBM MQ operations.
//
// Library holds the per-alias queue manager connections and implements the
// operations (connect, put, get, browse, clear, disconnect). Registry describes
// each operation as a keyword with a name, tags, documentation and an argument
// specification, binds loosely typed arguments coming from a test framework, and
// reports every call to the registered observers.
//
// Keyword names are matched the way Robot Framework matches them: case, spaces
// and underscores are ignored, so "Put MQ Message" and "put_mq_message" refer to
// the same keyword.
package keywords
