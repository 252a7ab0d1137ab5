// Package rpcbus declares the contract ifworker uses to issue calls
// against bus-exposed objects, plus an in-memory deterministic Fake used
// throughout the core's own tests.
package rpcbus

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/schema"
)

// Reply is a bus call's outcome: either a completed document, or a list
// of pending callback UUIDs the scheduler must wait for.
type Reply struct {
	Document  schema.ArgDoc
	Pending   []uuid.UUID
	Completed bool
}

// Client issues calls against a bus object. Implementations: Fake (this
// package, in-memory, deterministic) and transport/sshbus.Client (a
// Redis/SSH-backed reference adapter).
type Client interface {
	Call(ctx context.Context, objectPath, service, method string, args schema.ArgDoc) (Reply, error)
}

// Error sentinels every Client implementation wraps its failures with.
var (
	ErrNoSuchObject         = errors.New("rpcbus: no such object")
	ErrNoSuchMethod         = errors.New("rpcbus: no such method")
	ErrArgumentTypeMismatch = errors.New("rpcbus: argument type mismatch")
	ErrTransport            = errors.New("rpcbus: transport error")
	ErrRemote               = errors.New("rpcbus: remote error")
)
