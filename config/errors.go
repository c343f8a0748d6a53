package config

import "errors"

// ErrConfiguration marks a missing or malformed required setting. It is fatal
// and never retried.
var ErrConfiguration = errors.New("configuration error")
