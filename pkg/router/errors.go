package router

import "errors"

// ErrUnrecognizedChoice is returned when an instruction arrives while the
// child shows a choice prompt and it contains neither "yes" nor "no". The
// instruction is dropped.
var ErrUnrecognizedChoice = errors.New("router: instruction is not a yes/no answer")
