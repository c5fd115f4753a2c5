package remote

import "fmt"

// FetchError reports a failed REST retrieval. Source names what was being
// fetched ("primary", "secondary", "market update", "settings").
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is an HTTP reply with a 4xx or 5xx status. Message holds the
// body's "error" field when the service sent one.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}
