package alu

import "errors"

// ErrDivideByZero is returned by Do(DVD, ...) when OP2 is zero. The caller
// (the execution engine) must not write RESULT/RESULT2 back to any
// register when this is returned; DVD leaves CC's DIVZERO flag set.
var ErrDivideByZero = errors.New("alu: divide by zero")
