// Package logger provides a singleton zap logger with context-based scoping.
//
// Init once in main, then use From(ctx) everywhere; middlewares inject a
// request-scoped logger carrying request_id and friends, and From falls back
// to the singleton when no logger was injected. "dev" logs colored console
// output, "prod" logs JSON.
package logger
