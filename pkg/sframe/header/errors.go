package header

import "errors"

var (
	errKeyIDRange = errors.New("header: key id exceeds MaxKeyID")
	errTooShort   = errors.New("header: buffer too short to contain a header")
)
