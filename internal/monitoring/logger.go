// Package monitoring carries the process-wide diagnostic logger. The RPC
// link and the HTTP helpers log through it so tests can capture or mute
// their chatter.
package monitoring

import "log"

// Logf formats and records one diagnostic line. It defaults to log.Printf.
var Logf = log.Printf

// Discard drops every line. Hand it to SetLogger to mute diagnostics.
func Discard(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = Discard
	}
	Logf = f
}
