package errors

import stderrors "errors"

// Re-exports so callers importing this package keep access to the standard helpers.
var (
	Is  = stderrors.Is
	As  = stderrors.As
	New = stderrors.New
)
