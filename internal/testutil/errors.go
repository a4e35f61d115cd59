package testutil

import "errors"

// ErrSimulated is a sentinel error for testing socket fault paths
var ErrSimulated = errors.New("simulated error for testing")
