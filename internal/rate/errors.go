package rate

import "errors"

// ErrRateLimited indicates the attempt budget for the current window is
// exhausted. The caller maps it onto its public error taxonomy.
var ErrRateLimited = errors.New("rate limited")
