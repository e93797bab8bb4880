package appcore

import "fmt"

// ErrInvalidBaseURL is returned when a base URL is not an absolute http or
// https URL.
type ErrInvalidBaseURL struct {
	URL string
	Err error
}

func (e *ErrInvalidBaseURL) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid base URL %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid base URL %q", e.URL)
}

func (e *ErrInvalidBaseURL) Unwrap() error {
	return e.Err
}

// ErrConfigLoad is returned when the configuration file cannot be read or
// parsed.
type ErrConfigLoad struct {
	Path string
	Err  error
}

func (e *ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config %s: %v", e.Path, e.Err)
}

func (e *ErrConfigLoad) Unwrap() error {
	return e.Err
}
