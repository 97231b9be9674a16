// Package robotremote serves a keyword registry to Robot Framework over the
// remote library interface.
//
// The interface is XML-RPC over HTTP. Robot's Remote library calls
// get_library_information (or the older per-keyword getters) once, then
// run_keyword for every keyword step. Log lines a keyword writes while it
// runs are returned in the result's output and show up in Robot's log at
// their original level.
package robotremote
