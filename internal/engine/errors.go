package engine

import "errors"

var (
	// ErrValidation rejects a malformed order spec before any order is created.
	ErrValidation = errors.New("invalid order spec")
	// ErrNotFound reports a cancel against an unknown or already terminal order.
	ErrNotFound = errors.New("order not found")
	// ErrAssembly covers lookup-table resolution and signing failures.
	ErrAssembly = errors.New("transaction assembly failed")
	// ErrSimulation means the dry run predicted on-chain failure; nothing was broadcast.
	ErrSimulation = errors.New("simulation failed")
	// ErrBroadcast covers direct-path submission and confirmation failures.
	ErrBroadcast = errors.New("broadcast failed")
	// ErrRelay covers bundle submission failures on the tip path.
	ErrRelay = errors.New("relay submission failed")
)
