// Package server implements the HTTP and WebSocket API using Echo.
//
// Routes: users and auth (registration, token login), polls (CRUD, close,
// results), votes (cast, retract), realtime (poll subscription WebSocket),
// observability (health, metrics).
// Handlers split by domain: handlers_users.go, handlers_polls.go,
// handlers_votes.go, websocket.go.
package server
