package distill

import "errors"

// Sentinel errors for the orchestrator. Callers detect categories with
// errors.Is; call sites wrap these with context via fmt.Errorf and %w.
// Only ErrDiscovery and ErrInvalidOptions abort a run; every other kind is
// isolated to the job that raised it and lands in the run summary.
var (
	// ErrInvalidOptions indicates the engine options failed validation.
	ErrInvalidOptions = errors.New("distill: invalid options")

	// ErrDiscovery indicates the input path does not exist or is neither
	// a regular file nor a directory. Fatal: no job runs.
	ErrDiscovery = errors.New("distill: discovery failed")

	// ErrInvalidInput indicates a source file is unreadable as a document
	// (missing, empty, or not a valid PDF).
	ErrInvalidInput = errors.New("distill: invalid input file")

	// ErrValidation indicates a pre-flight check failed on I/O before it
	// could decide anything about the document.
	ErrValidation = errors.New("distill: validation check failed")

	// ErrConversion indicates the document converter failed.
	ErrConversion = errors.New("distill: conversion failed")

	// ErrTimeout indicates a conversion exceeded its per-file deadline and
	// was abandoned.
	ErrTimeout = errors.New("distill: conversion timed out")

	// ErrWrite indicates converted output could not be written atomically.
	ErrWrite = errors.New("distill: output write failed")
)
