package channel

import "errors"

// Custom channel service errors
var (
	// ErrChannelNotFound indicates the requested channel does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDuplicateChannelName indicates a channel with the same name already exists
	ErrDuplicateChannelName = errors.New("channel name already exists")

	// ErrInvalidChannel indicates the supplied channel definition is malformed
	ErrInvalidChannel = errors.New("invalid channel definition")
)

// IsChannelNotFound checks if the error is a channel not found error
func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

// IsDuplicateName checks if the error is a duplicate channel name error
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateChannelName)
}
