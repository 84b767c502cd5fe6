package emulator

import (
	"github.com/ezrec/hexad/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Ip     uint64
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("ip %d line %d %v", err.Ip, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
