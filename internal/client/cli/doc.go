// Package cli implements the interactive gophchat terminal client.
//
// The REPL keeps one active session. Plain commands manage the account and
// sessions; "ask <text>" and "compose" send messages to the active session
// with its history. Session listings are mirrored into a local SQLite cache
// so "list" and "show" keep working while the server is unreachable.
package cli
