package cli

import "errors"

// ErrInvalidFlag is returned when a flag value is not accepted.
var ErrInvalidFlag = errors.New("invalid flag value")

// ErrResetAborted is returned when the user declines the reset prompt.
var ErrResetAborted = errors.New("reset aborted")

// ErrConfirmationRequired is returned when reset needs confirmation but
// stdin is not interactive.
var ErrConfirmationRequired = errors.New("confirmation required: re-run with --yes")
