package suite

import "errors"

var (
	errUnknownVariant = errors.New("suite: unsupported cipher suite variant")
	errEmptyKey       = errors.New("suite: raw key material must not be empty")
)
