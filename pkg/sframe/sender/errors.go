package sender

import "errors"

var (
	errIDRange         = errors.New("sender: sender id exceeds the maximum representable key id")
	errNoKey           = errors.New("sender: no encryption key installed")
	errCounterOverflow = errors.New("sender: counter exhausted, no further frames can be sent")
)
