package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// UnknownChartTypeError is raised at authoring time only. Rendering an
// unknown kind is not an error; it renders nothing.
type UnknownChartTypeError struct {
	ErrorMessage
	Kind string
}

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// ExternalServiceError covers every failure to reach a collaborator: the
// dashboard API from the client side, data sources and the cache from the
// server side. Transient errors are safe to retry by the user.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewUnknownChartTypeError(kind string) *UnknownChartTypeError {
	return &UnknownChartTypeError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("unknown chart type: %q", kind)},
		Kind:         kind,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

// NewNetworkError is an ExternalServiceError for a transport failure.
func NewNetworkError(service string, err error) *ExternalServiceError {
	return NewExternalServiceError(service, fmt.Sprintf("%s unreachable: %v", service, err), true, err)
}
