package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Remote source errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrImageFetch         = fmt.Errorf("image download failed")

	// Object storage errors
	ErrStorageDisabled = fmt.Errorf("object storage not configured")
	ErrUpload          = fmt.Errorf("object upload failed")

	// Legacy data errors
	ErrLegacyQuery          = fmt.Errorf("legacy database query failed")
	ErrUndecodableFeedback  = fmt.Errorf("undecodable feedback payload")
	ErrUnrecognizedFeedback = fmt.Errorf("unrecognized feedback entry")

	// Persistence errors
	ErrNotFound   = fmt.Errorf("record not found")
	ErrValidation = fmt.Errorf("validation failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
