// Package config loads and validates fifoplay scenarios.
//
// A scenario names a set of buffers and a list of steps to replay against them.
// It is read from YAML (.yaml, .yml) or JSON (anything else):
//
//	version: "1"
//	log:
//	  level: debug
//	buffers:
//	  - name: ingest
//	    capacity: 5
//	    policy: drop_oldest
//	    metrics: true
//	    initial: [1, 2]
//	steps:
//	  - {buffer: ingest, op: push, values: [3, 4, 5, 6]}
//	  - {buffer: ingest, op: pull, n: 2}
//
// # Loading
//
//	cfg, err := config.Load("scenario.yaml")
//
// Load applies defaults (log level info, text format, drop_oldest policy), then
// FIFOPLAY_LOG_LEVEL and FIFOPLAY_LOG_FORMAT from the environment, then validates.
// Parse followed by Validate checks a scenario held in memory.
//
// # Errors
//
// A missing file is fatal (errors.ErrConfigNotFound). Malformed input is invalid
// (errors.ErrParsingFailed), as is a scenario that fails Validate
// (errors.ErrInvalidConfig). Validation errors also wrap ErrMissingConfig for
// absent buffers or names, ErrUnknownOperation for an unrecognised op, and
// ErrInvalidData for values or counts an op cannot take.
package config
