package sframe

import "errors"

var (
	errNoSender   = errors.New("sframe: no sender installed; call SetSenderEncryptionKey first")
	errNoReceiver = errors.New("sframe: no receiver registered for the frame's keyId")
)
