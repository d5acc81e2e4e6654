package receiver

import "errors"

var (
	errReplay        = errors.New("receiver: counter falls outside the replay window")
	errNoKey         = errors.New("receiver: no encryption key installed")
	errAllKeysFailed = errors.New("receiver: no key in the keyring could decrypt the frame")
)
