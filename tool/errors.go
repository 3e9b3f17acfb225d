package tool

import "fmt"

// ErrToolNotFound is returned when a call names a tool that is not registered.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrToolAlreadyRegistered is returned when registering a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// Failure is an in-band tool failure. Its text is the exact payload handed
// back to the model, always starting with "Error".
type Failure string

func (f Failure) Error() string { return string(f) }

func failf(format string, args ...any) error {
	return Failure(fmt.Sprintf(format, args...))
}

// payload flattens a (result, error) pair into the string the model sees.
func payload(out string, err error) string {
	if err != nil {
		return err.Error()
	}
	return out
}
