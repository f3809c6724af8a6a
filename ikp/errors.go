package ikp

import "errors"

var (
	// ErrBadMagic is returned when a packet does not start with the IKP
	// magic constant.
	ErrBadMagic = errors.New("ikp: bad magic")

	// ErrTruncated is returned when a packet ends before a complete header,
	// entry, or signature block.
	ErrTruncated = errors.New("ikp: truncated packet")

	// ErrNoMembers is returned when a packet declares zero members.
	ErrNoMembers = errors.New("ikp: no members")

	// ErrTooManyMembers is returned when a packet declares more members than
	// MaxMembers. The check runs before any allocation proportional to the
	// declared count.
	ErrTooManyMembers = errors.New("ikp: too many members")

	// ErrNotRecipient is returned by Extract when no entry carries the
	// caller's fingerprint.
	ErrNotRecipient = errors.New("ikp: not a recipient")

	// ErrSignatureInvalid is returned by Verify when the trailing signature
	// does not verify over the signed region.
	ErrSignatureInvalid = errors.New("ikp: signature invalid")

	// ErrBadSignatureBlock is returned when the signature block declares an
	// unknown algorithm or an out-of-range length.
	ErrBadSignatureBlock = errors.New("ikp: bad signature block")

	// ErrInvalidArgument is returned by Build for malformed inputs.
	ErrInvalidArgument = errors.New("ikp: invalid argument")
)
