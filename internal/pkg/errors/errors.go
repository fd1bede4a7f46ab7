package errors

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrScrape          = errors.New("scrape failed")
	ErrFetch           = errors.New("fetch failed")
	ErrDelete          = errors.New("delete failed")
	ErrEmbedding       = errors.New("embedding failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("service unavailable")
)

// IsUserError reports whether err is caused by bad caller input rather than
// a failing collaborator.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrFileTooLarge)
}
