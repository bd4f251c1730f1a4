// Package service runs the server's infrastructure around a Session:
// transports, gateways, replication and recording
package service

import "context"

// Service defines the lifecycle of an infrastructure subsystem
// Services own long-lived resources: listeners, broker connections, databases
//
// Lifecycle:
//  1. Construction, dependencies are passed to the constructor
//  2. Init() - open connections, validate configuration
//  3. Start(ctx) - launch background goroutines, ctx ends with the process
//  4. [runtime operation]
//  5. Stop() - halt goroutines, flush and release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init and Start before this one
	Dependencies() []string

	// Init prepares the service, failure aborts startup
	Init() error

	// Start begins service operation, called after every service initialized
	Start(ctx context.Context) error

	// Stop halts the service and releases resources
	// Must be idempotent and safe to call after a failed Init
	Stop() error
}

// Base provides empty Dependencies and Init for services that need neither
type Base struct{}

func (Base) Dependencies() []string { return nil }

func (Base) Init() error { return nil }
