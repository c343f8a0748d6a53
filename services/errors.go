package services

import "errors"

// ErrDataFormat means the sheet produced no usable records. The load fails
// but the caller can recover by fixing the configured source.
var ErrDataFormat = errors.New("no valid data was found in the sheet")

// Hint is shown to users next to any load failure.
const Hint = "Please make sure the SHEET_URL setting points at the blackout selections sheet."
