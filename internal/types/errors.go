package types

import "errors"

// ErrDataUnavailable marks a required local input (universe file, master
// list) that is missing or malformed. It is fatal for the run.
var ErrDataUnavailable = errors.New("required data unavailable")

// ErrFetchFailed marks an external call that failed after retries. It is
// recovered per record or per item, never fatal.
var ErrFetchFailed = errors.New("external fetch failed")
