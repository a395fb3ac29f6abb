// Package errors provides standardized error handling for the packages layered on top
// of the fifo ring buffer.
//
// # Overview
//
// The ring buffer itself never returns errors: declined pushes, empty reads and
// over-sized requests are ordinary return values, and contract violations panic.
// The outer packages (buffer, metric, config, the fifoplay command) do fail in ways
// a caller has to act on, and they report those failures through this package.
//
// Errors fall into three classes:
//
//   - Transient: may succeed if tried again (context deadlines, unavailable registries)
//   - Invalid: bad input or misuse (unknown operations, writes after Close, duplicate metrics)
//   - Fatal: unrecoverable configuration problems (missing or invalid config)
//
// # Error Wrapping Pattern
//
// All wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions attach a class while wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The plain Wrap function adds context without a class.
//
// # Standard Error Variables
//
//   - Buffer lifecycle: ErrBufferClosed
//   - Capacity: ErrInvalidCapacity, ErrCapacityExceeded
//   - Data and scenarios: ErrInvalidData, ErrParsingFailed, ErrUnknownOperation, ErrUnknownBuffer
//   - Configuration: ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound
//   - Metrics: ErrMetricConflict
//
// Wrap these rather than creating ad-hoc messages so that callers can use errors.Is:
//
//	if errors.Is(err, errors.ErrBufferClosed) {
//	    // stop producing
//	}
//
// # Integration with errors.As/Is
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    slog.Warn("operation failed", "component", ce.Component, "class", ce.Class)
//	}
//
// Context errors (context.DeadlineExceeded, context.Canceled) classify as Transient.
//
// # Thread Safety
//
// Error variables are immutable and a ClassifiedError is safe to share after creation.
package errors
