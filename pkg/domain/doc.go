// Package domain contains the core domain types used by the notifier. They
// are free of transport and provider concerns so every entrypoint (HTTP
// server, serverless function, CLI) can share them.
package domain
