// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"errors"

	"code.hybscloud.com/iox"
)

// aio reuses the iox taxonomy for the transfer outcomes it shares with
// ordinary non-blocking I/O (iox.ErrWouldBlock, iox.EOF, iox.ErrShortBuffer)
// and adds the two classifications specific to weakly-referenced services.

// ErrBadDescriptor means the backing service behind a Stream no longer
// exists. Terminal for the stream; further operations report it again.
var ErrBadDescriptor = errors.New("aio: bad descriptor")

// ErrFault means a transfer loop made no progress although no outcome
// guard tripped. It marks a broken internal invariant and is surfaced
// through the completion instead of being swallowed.
var ErrFault = errors.New("aio: fault")

// IsBadDescriptor reports whether err carries the dead-service semantic.
// It returns true for ErrBadDescriptor and wrappers (via errors.Is).
func IsBadDescriptor(err error) bool { return errors.Is(err, ErrBadDescriptor) }

// IsFault reports whether err carries the broken-invariant semantic.
// It returns true for ErrFault and wrappers (via errors.Is).
func IsFault(err error) bool { return errors.Is(err, ErrFault) }

// IsRetryable reports whether err allows the caller to re-issue the
// operation later: the iox would-block semantic, including wrapped forms.
func IsRetryable(err error) bool { return iox.IsWouldBlock(err) }

// IsTerminal reports whether err ends the operation sequence for this
// stream attempt: any non-nil classification other than would-block.
// iox.EOF is terminal but success-adjacent; inspect it separately when
// the distinction matters.
func IsTerminal(err error) bool { return err != nil && !iox.IsWouldBlock(err) }
