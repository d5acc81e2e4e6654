package iv

import "errors"

var (
	errCounterLen = errors.New("iv: raw counter must be 1..8 bytes")
	errSaltLen    = errors.New("iv: salt must be 12 bytes")
)
