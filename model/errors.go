package model

import "errors"

// ErrNoFinalResponse is returned when a generation ends without a final response.
var ErrNoFinalResponse = errors.New("model returned no final response")
