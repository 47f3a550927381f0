// Package sqlitemulti wraps SQLite so a single database can be used from
// many goroutines at once.
//
// A dedicated worker goroutine owns the only connection to the database.
// Every operation is enqueued as a command and executed by the worker in
// submission order, while the caller blocks on its own result channel.
// This serializes all access without exposing locks to the caller and
// keeps "database is locked" errors away from application code.
//
// For sharing a database between processes, run the sqlitemultid daemon
// and use Remote, which offers the same operations over HTTP.
package sqlitemulti
