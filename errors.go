package pta

import (
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/pkg/errors"
)

// ErrFatal is the sentinel every fatal analysis error wraps (§7): a missing
// static field at sget/sput, or malformed loader input. errors.Is(err,
// ErrFatal) is true for every error Analyse returns except a cancellation,
// which is returned as ctx.Err() alongside an Incomplete Result.
var ErrFatal = errors.New("pta: fatal analysis error, partial PAG discarded")

func fatalNotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", errors.Wrapf(ErrFatal, format, args...), errdefs.ErrNotFound)
}

func fatalInvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", errors.Wrapf(ErrFatal, format, args...), errdefs.ErrInvalidArgument)
}

// Diagnostic records one recoverable condition encountered during
// translation: a missing class, field or method at new-instance/iget/iput/
// invoke (§7). These never abort the analysis; the offending instruction is
// simply skipped.
type Diagnostic struct {
	Insn    InsnHdl
	Message string
}

// Diagnostics accumulates Diagnostic values during a single Analyse run.
type Diagnostics struct {
	items []Diagnostic
}

func (d *Diagnostics) add(insn InsnHdl, msg string) {
	d.items = append(d.items, Diagnostic{Insn: insn, Message: msg})
}

// List returns a snapshot of everything recorded so far.
func (d *Diagnostics) List() []Diagnostic {
	return append([]Diagnostic(nil), d.items...)
}
