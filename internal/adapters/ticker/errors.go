package ticker

import "errors"

// Sentinel kinds for driver errors.
var (
	ErrRunning  = errors.New("driver already running")
	ErrDispatch = errors.New("tick dispatch failed")
)
