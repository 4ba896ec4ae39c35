package manager

import "fmt"

// Failure kinds reported in the error envelope. The HTTP layer maps these to
// status codes; keep the strings stable, clients switch on them.
const (
	KindLoadError            = "LoadError"
	KindValidationError      = "ValidationError"
	KindUnsupportedMediaType = "UnsupportedMediaType"
	KindGateTimeout          = "GateTimeout"
	KindInferenceError       = "InferenceError"
	KindEngineTimeout        = "EngineTimeout"
	KindUnavailable          = "Unavailable"
	KindInternal             = "InternalError"
)

// loadError signals the model artifact could not be loaded. Fatal at startup.
type loadError struct{ err error }

func (e loadError) Error() string { return "load model: " + e.err.Error() }
func (e loadError) Unwrap() error { return e.err }

// ErrLoad wraps err as a fatal load failure.
func ErrLoad(err error) error { return loadError{err: err} }

// IsLoad reports whether err indicates a model load failure.
func IsLoad(err error) bool {
	_, ok := err.(loadError)
	return ok
}

// validationError signals a request that fails the schema (return 400).
type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

// ErrValidation wraps err as a request validation failure.
func ErrValidation(err error) error { return validationError{err: err} }

// IsValidation reports whether err indicates an invalid request.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// gateTimeoutError signals backpressure at the worker gate (return 503).
type gateTimeoutError struct{ msg string }

func (e gateTimeoutError) Error() string { return e.msg }

// ErrGateTimeout constructs a backpressure error with the given detail.
func ErrGateTimeout(msg string) error { return gateTimeoutError{msg: msg} }

// IsGateTimeout reports whether err indicates gate backpressure.
func IsGateTimeout(err error) bool {
	_, ok := err.(gateTimeoutError)
	return ok
}

// inferenceError signals the engine failed mid-request (return 500).
type inferenceError struct{ err error }

func (e inferenceError) Error() string { return "inference: " + e.err.Error() }
func (e inferenceError) Unwrap() error { return e.err }

// ErrInference wraps an engine failure.
func ErrInference(err error) error { return inferenceError{err: err} }

// IsInference reports whether err indicates an engine failure.
func IsInference(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}

// engineTimeoutError signals the engine exceeded the request deadline (504).
type engineTimeoutError struct{ msg string }

func (e engineTimeoutError) Error() string { return e.msg }

// ErrEngineTimeout constructs a per-request engine deadline error.
func ErrEngineTimeout(msg string) error { return engineTimeoutError{msg: msg} }

// IsEngineTimeout reports whether err indicates the engine ran out of time.
func IsEngineTimeout(err error) bool {
	_, ok := err.(engineTimeoutError)
	return ok
}

// unavailableError signals the server cannot take work in its current
// lifecycle state (return 503).
type unavailableError struct{ state State }

func (e unavailableError) Error() string {
	return fmt.Sprintf("server not accepting requests (state=%s)", e.state)
}

// ErrUnavailable constructs a lifecycle-state rejection.
func ErrUnavailable(state State) error { return unavailableError{state: state} }

// IsUnavailable reports whether err indicates a lifecycle-state rejection.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// Kind maps err to its wire kind. Unknown errors report KindInternal.
func Kind(err error) string {
	switch {
	case IsLoad(err):
		return KindLoadError
	case IsValidation(err):
		return KindValidationError
	case IsGateTimeout(err):
		return KindGateTimeout
	case IsInference(err):
		return KindInferenceError
	case IsEngineTimeout(err):
		return KindEngineTimeout
	case IsUnavailable(err):
		return KindUnavailable
	default:
		return KindInternal
	}
}
