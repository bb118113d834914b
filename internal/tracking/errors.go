package tracking

import "fmt"

// StoreOpenError reports that the tracking store could not be opened or
// created. It is always fatal.
type StoreOpenError struct {
	Path string
	Op   string
	Err  error
}

func (e *StoreOpenError) Error() string {
	return fmt.Sprintf("open tracking store %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *StoreOpenError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for logging and exit handling.
func (e *StoreOpenError) ErrorKind() string { return "store_open" }
