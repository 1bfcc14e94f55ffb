package errors

import "errors"

var (
	ErrBrokerNotFound = errors.New("broker not found")
	ErrInvalidInput   = errors.New("invalid broker directory input")
)
