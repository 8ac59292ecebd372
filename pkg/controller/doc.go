// Package controller contains HTTP middlewares and helper handlers shared by
// every entrypoint of the notifier (HTTP server, Vercel function, Lambda).
//
// Provided middlewares:
//   - WithCORS: Adds the fixed CORS headers and answers OPTIONS preflight with an empty 200.
//   - WithTimeout: Bounds the request context so handlers answer a slow request themselves.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//
// Provided helpers:
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers.
package controller
