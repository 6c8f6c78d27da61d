package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// API and backend errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPanelNotFound      = fmt.Errorf("panel not found")
	ErrServerNotFound     = fmt.Errorf("server not found")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Wizard session errors
	ErrValidation     = fmt.Errorf("validation failed")
	ErrSessionClosed  = fmt.Errorf("wizard session closed")
	ErrSubmitInFlight = fmt.Errorf("submission already in flight")
	ErrStepOutOfRange = fmt.Errorf("step out of range")
	ErrPollBudget     = fmt.Errorf("poll budget exhausted")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
