package codec

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
)

func TestIntRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, -1, 500, -500, 1 << 30} {
		raw, err := Encode("setsockopt", consts.OptLinger, backend.TypeInt, v)
		if err != nil {
			t.Fatalf("Encode(%d): %v", v, err)
		}
		if len(raw) != 4 {
			t.Fatalf("int encodes to %d bytes", len(raw))
		}
		got, err := Decode("getsockopt", consts.OptLinger, backend.TypeInt, raw)
		if err != nil {
			t.Fatalf("Decode(%d): %v", v, err)
		}
		if got.(int) != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
	}
}

func TestInt64AcceptsIntWidening(t *testing.T) {
	raw, err := Encode("setsockopt", consts.OptMaxMsgSize, backend.TypeInt64, 1024)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode("getsockopt", consts.OptMaxMsgSize, backend.TypeInt64, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(int64) != 1024 {
		t.Fatalf("got %v", got)
	}
}

func TestUint64RejectsNegative(t *testing.T) {
	_, err := Encode("setsockopt", consts.OptAffinity, backend.TypeUint64, -3)
	if err == nil {
		t.Fatal("negative value accepted for uint64 option")
	}
	if !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Fatalf("error kind: %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	_, err := Encode("setsockopt", consts.OptLinger, backend.TypeInt, "zero")
	if err == nil {
		t.Fatal("string accepted for int option")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error type: %T", err)
	}
	if e.Kind != errors.KindTypeMismatch {
		t.Fatalf("kind = %v", e.Kind)
	}
	if e.Want != "int" || e.Got != "string" {
		t.Fatalf("want/got = %q/%q", e.Want, e.Got)
	}
	if !strings.Contains(e.Detail, "linger") {
		t.Fatalf("detail should name the option: %q", e.Detail)
	}
}

func TestBinaryAcceptsStringAndBytes(t *testing.T) {
	fromString, err := Encode("setsockopt", consts.OptSubscribe, backend.TypeBinary, "price.")
	if err != nil {
		t.Fatalf("Encode(string): %v", err)
	}
	fromBytes, err := Encode("setsockopt", consts.OptSubscribe, backend.TypeBinary, []byte("price."))
	if err != nil {
		t.Fatalf("Encode([]byte): %v", err)
	}
	if string(fromString) != string(fromBytes) {
		t.Fatal("string and []byte encodings differ")
	}

	// The encoded copy must not alias the caller's slice.
	src := []byte("topic")
	enc, _ := Encode("setsockopt", consts.OptSubscribe, backend.TypeBinary, src)
	src[0] = 'X'
	if enc[0] == 'X' {
		t.Fatal("encoded value aliases caller's buffer")
	}
}

func TestStringDecodeTrimsNul(t *testing.T) {
	got, err := Decode("getsockopt", consts.OptLastEndpoint, backend.TypeString, []byte("inproc://quotes\x00"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(string) != "inproc://quotes" {
		t.Fatalf("got %q", got)
	}

	bare, _ := Decode("getsockopt", consts.OptLastEndpoint, backend.TypeString, []byte("inproc://quotes"))
	if bare.(string) != "inproc://quotes" {
		t.Fatalf("unterminated decode got %q", bare)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode("getsockopt", consts.OptLinger, backend.TypeInt, []byte{1, 2})
	if err == nil {
		t.Fatal("short buffer accepted")
	}
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("error kind: %v", err)
	}
}

func TestGetSize(t *testing.T) {
	if GetSize(backend.TypeInt) != 4 {
		t.Error("int size")
	}
	if GetSize(backend.TypeInt64) != 8 || GetSize(backend.TypeUint64) != 8 {
		t.Error("64-bit size")
	}
	if GetSize(backend.TypeBinary) != 255 || GetSize(backend.TypeString) != 255 {
		t.Error("variable size")
	}
}

func TestAsInt(t *testing.T) {
	for _, v := range []any{int(7), int64(7), uint64(7)} {
		got, ok := AsInt(v)
		if !ok || got != 7 {
			t.Fatalf("AsInt(%T) = %d, %v", v, got, ok)
		}
	}
	if _, ok := AsInt("7"); ok {
		t.Fatal("AsInt accepted a string")
	}
}

func TestOptionLabel(t *testing.T) {
	if got := OptionLabel(consts.OptLinger); got != "linger (17)" {
		t.Errorf("OptionLabel(linger) = %q", got)
	}
	if got := OptionLabel(9999); got != "option 9999" {
		t.Errorf("OptionLabel(unknown) = %q", got)
	}
}
