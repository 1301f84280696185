package credentials

import "errors"

// ErrIncompleteBundle indicates a submit was attempted while at least one
// required field was still empty after trimming. Never sent to the network.
var ErrIncompleteBundle = errors.New("credential bundle incomplete")
