// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ixfrerr classifies the failure kinds spec.md section 7
// enumerates for the IXFR core: invalid-argument, out-of-memory,
// io-error, format-error, and logic-error. All are non-recoverable
// locally — the current diff or insert aborts and bubbles up a wrapped
// error the caller logs and falls back from (full AXFR in place of the
// IXFR).
package ixfrerr

import "github.com/pkg/errors"

// Kind sentinels. Callers recover the kind of a wrapped error with
// errors.Is(err, ixfrerr.KindIO) etc. (github.com/pkg/errors's Wrap
// preserves the chain that the standard errors.Is/As walk).
var (
	KindInvalidArgument = errors.New("invalid argument")
	KindOutOfMemory     = errors.New("out of memory")
	KindIO              = errors.New("io error")
	KindFormat          = errors.New("format error")
	KindLogic           = errors.New("logic error")
)

// Wrap annotates kind with a formatted message, preserving kind as the
// error chain's cause so errors.Is(result, kind) and errors.Cause(result)
// both still work.
func Wrap(kind error, format string, args ...interface{}) error {
	return errors.Wrapf(kind, format, args...)
}
