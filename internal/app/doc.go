// Package app provides the application service layer.
//
// Orchestrates use cases: user registration, poll creation, vote casting and
// retraction, poll closing, result reads. Sits between HTTP handlers and the
// engine components. Depends on domain interfaces, not concrete implementations.
package app
