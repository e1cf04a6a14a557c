// Package codec packs option values for the native option calls.
//
// The native getsockopt/setsockopt surface is untyped: a pointer and a
// length. This package is the single place where Go values become those raw
// bytes and come back, driven by the option typing a backend descriptor
// declares. Values use the platform's native byte order, because the engine
// reads them as C integers in the same process.
//
// Typing is strict. The caller declares the option's type; a Go value that
// does not fit the declared encoding fails with a type_mismatch error rather
// than being coerced. Widening int to int64 and the []byte/string duality of
// binary options are the only conversions performed.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
)

var order = binary.NativeEndian

// OptionLabel renders an option id for error messages, e.g. "linger (17)".
func OptionLabel(id int) string {
	if name := consts.OptionName(id); name != "" {
		return fmt.Sprintf("%s (%d)", name, id)
	}
	return fmt.Sprintf("option %d", id)
}

// GetSize returns the buffer size to offer the engine when reading a value
// of the given type.
func GetSize(typ backend.OptionType) int {
	switch typ {
	case backend.TypeInt:
		return 4
	case backend.TypeInt64, backend.TypeUint64:
		return 8
	}
	// Identity and endpoint values are bounded well below this.
	return 255
}

// Encode packs a Go value into the raw bytes of the declared option type.
// The op and option arguments only feed error context.
func Encode(op string, option int, typ backend.OptionType, value any) ([]byte, error) {
	switch typ {
	case backend.TypeInt:
		v, ok := value.(int)
		if !ok {
			return nil, mismatch(op, option, typ, value)
		}
		b := make([]byte, 4)
		order.PutUint32(b, uint32(int32(v)))
		return b, nil

	case backend.TypeInt64:
		var v int64
		switch x := value.(type) {
		case int64:
			v = x
		case int:
			v = int64(x)
		default:
			return nil, mismatch(op, option, typ, value)
		}
		b := make([]byte, 8)
		order.PutUint64(b, uint64(v))
		return b, nil

	case backend.TypeUint64:
		var v uint64
		switch x := value.(type) {
		case uint64:
			v = x
		case uint:
			v = uint64(x)
		case int:
			if x < 0 {
				return nil, mismatch(op, option, typ, value)
			}
			v = uint64(x)
		default:
			return nil, mismatch(op, option, typ, value)
		}
		b := make([]byte, 8)
		order.PutUint64(b, v)
		return b, nil

	case backend.TypeBinary:
		switch x := value.(type) {
		case []byte:
			out := make([]byte, len(x))
			copy(out, x)
			return out, nil
		case string:
			return []byte(x), nil
		}
		return nil, mismatch(op, option, typ, value)

	case backend.TypeString:
		v, ok := value.(string)
		if !ok {
			return nil, mismatch(op, option, typ, value)
		}
		return []byte(v), nil
	}

	return nil, errors.New(errors.PhaseOption, errors.KindInvalidInput).
		Op(op).
		Detail("%s: unknown option type %d", OptionLabel(option), typ).
		Build()
}

// Decode unpacks raw engine bytes into the Go value of the declared type.
// Integer types return int, int64 and uint64 respectively; binary returns a
// fresh []byte; string trims the engine's trailing NUL when present.
func Decode(op string, option int, typ backend.OptionType, raw []byte) (any, error) {
	switch typ {
	case backend.TypeInt:
		if len(raw) < 4 {
			return nil, short(op, option, typ, len(raw), 4)
		}
		return int(int32(order.Uint32(raw))), nil

	case backend.TypeInt64:
		if len(raw) < 8 {
			return nil, short(op, option, typ, len(raw), 8)
		}
		return int64(order.Uint64(raw)), nil

	case backend.TypeUint64:
		if len(raw) < 8 {
			return nil, short(op, option, typ, len(raw), 8)
		}
		return order.Uint64(raw), nil

	case backend.TypeBinary:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil

	case backend.TypeString:
		if n := len(raw); n > 0 && raw[n-1] == 0 {
			raw = raw[:n-1]
		}
		return string(raw), nil
	}

	return nil, errors.New(errors.PhaseOption, errors.KindInvalidInput).
		Op(op).
		Detail("%s: unknown option type %d", OptionLabel(option), typ).
		Build()
}

// AsInt widens any integer-typed decode result to int. It exists for
// callers that read version-dependent options, like rcvmore, which decodes
// as int64 on 2.x backends and int from 3.x on.
func AsInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	}
	return 0, false
}

func mismatch(op string, option int, typ backend.OptionType, value any) *errors.Error {
	return errors.TypeMismatch(op, OptionLabel(option), typ.String(), fmt.Sprintf("%T", value))
}

func short(op string, option int, typ backend.OptionType, got, want int) *errors.Error {
	return errors.New(errors.PhaseOption, errors.KindInvalidInput).
		Op(op).
		Detail("%s: engine returned %d bytes, want %d for %s", OptionLabel(option), got, want, typ).
		Build()
}
