package backend

import (
	"fmt"
	"sort"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
)

// Op names a version-dependent operation.
type Op string

const (
	OpCtxGet     Op = "ctx_get"
	OpCtxSet     Op = "ctx_set"
	OpUnbind     Op = "unbind"
	OpDisconnect Op = "disconnect"
	OpProxy      Op = "proxy"
	OpDevice     Op = "device"
)

// requires maps each gated operation to the revision range that provides it,
// for use in unsupported-operation errors.
var requires = map[Op]string{
	OpCtxGet:     ">= 3.2",
	OpCtxSet:     ">= 3.2",
	OpUnbind:     ">= 3.2",
	OpDisconnect: ">= 3.2",
	OpProxy:      ">= 3.2",
	OpDevice:     "2.x",
}

// Requires returns the revision range that provides op.
func Requires(op Op) string {
	return requires[op]
}

// OptionType is the value encoding of one option on one revision.
type OptionType uint8

const (
	TypeInt OptionType = iota + 1
	TypeInt64
	TypeUint64
	TypeBinary
	TypeString
)

func (t OptionType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeBinary:
		return "binary"
	case TypeString:
		return "string"
	}
	return "invalid"
}

// Descriptor is the capability table of one engine revision line. Values are
// immutable after construction and safe for concurrent use.
type Descriptor struct {
	// Name is the short backend name, e.g. "zmq4.1".
	Name string
	// Revision is the human-readable revision range, e.g. "4.1+".
	Revision string

	ops           map[Op]struct{}
	sockOpts      map[int]OptionType
	ctxOpts       map[int]struct{}
	maxSocketType consts.SocketType
}

// Supports reports whether the revision provides op.
func (d *Descriptor) Supports(op Op) bool {
	_, ok := d.ops[op]
	return ok
}

// OptionType returns the value typing of a socket option, when the option is
// known to this revision.
func (d *Descriptor) OptionType(id int) (OptionType, bool) {
	t, ok := d.sockOpts[id]
	return t, ok
}

// CtxOption reports whether the revision knows a context option id.
func (d *Descriptor) CtxOption(id int) bool {
	_, ok := d.ctxOpts[id]
	return ok
}

// ValidSocketType reports whether the revision accepts the socket type.
func (d *Descriptor) ValidSocketType(t consts.SocketType) bool {
	return t >= consts.Pair && t <= d.maxSocketType
}

// Ops returns the supported operations in stable order.
func (d *Descriptor) Ops() []Op {
	out := make([]Op, 0, len(d.ops))
	for op := range d.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Options returns the known socket option ids in ascending order.
func (d *Descriptor) Options() []int {
	out := make([]int, 0, len(d.sockOpts))
	for id := range d.sockOpts {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Select resolves a reported engine version to its descriptor. Major
// revisions outside the known set fail fast; within a known major, newer
// minors map to the newest descriptor of that line.
func Select(major, minor int) (*Descriptor, error) {
	switch {
	case major == 2:
		return v2, nil
	case major == 3:
		return v3, nil
	case major == 4 && minor == 0:
		return v4, nil
	case major == 4 && minor >= 1:
		return v41, nil
	}
	return nil, errors.Unresolvable(
		fmt.Sprintf("no backend for engine version %d.%d", major, minor), nil)
}

// All returns every known descriptor, oldest revision first.
func All() []*Descriptor {
	return []*Descriptor{v2, v3, v4, v41}
}
