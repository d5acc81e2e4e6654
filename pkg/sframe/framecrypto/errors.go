package framecrypto

import "errors"

var (
	errFrameTooShort    = errors.New("framecrypto: frame too short for header and tag")
	errTagTooLong       = errors.New("framecrypto: requested tag length exceeds HMAC output")
	errTagMismatch      = errors.New("framecrypto: authentication tag mismatch")
	errUnknownAlgorithm = errors.New("framecrypto: unknown AEAD algorithm")
)
