package domain

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Failure kinds. The processor wraps adapter errors with one of these so
// callers can classify a failed job with errors.Is.
var (
	ErrInvalidJob = constError("invalid job")
	ErrFetch      = constError("fetch failed")
	ErrTransfer   = constError("transfer failed")
	ErrUpload     = constError("upload failed")
	ErrStorage    = constError("storage failed")
)
