package zmqffi

import (
	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/codec"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/lifecycle"
	"github.com/semifor/zmq-ffi/native"
)

// Socket is one communication endpoint of a messaging pattern, bound to the
// backend its context selected. A Socket is not safe for concurrent use; the
// engine's own threading rules apply, one goroutine per socket.
//
// Native-call failures follow the socket's die-on-error policy: returned as
// errors by default, or recorded in the socket's sticky error state with a
// best-effort result when the policy is disabled. Structural failures, such
// as an operation the backend does not provide or a mistyped option value,
// are returned regardless of the policy.
//
// The interface is sealed; the revision variants in this package are its
// only implementations.
type Socket interface {
	// Type reports the socket's pattern type.
	Type() consts.SocketType

	// Bind attaches the socket to an endpoint as the listening side.
	Bind(endpoint string) error

	// Connect attaches the socket to a bound endpoint.
	Connect(endpoint string) error

	// Unbind detaches a bound endpoint. Unsupported before 3.2.
	Unbind(endpoint string) error

	// Disconnect detaches a connected endpoint. Unsupported before 3.2.
	Disconnect(endpoint string) error

	// Get reads an option as the declared type. The type must agree with
	// the backend's table entry when the option is known to it; unknown
	// options pass through to the engine as declared.
	Get(option int, typ backend.OptionType) (any, error)

	// Set writes an option value of the declared type, with the same
	// typing rules as Get.
	Set(option int, typ backend.OptionType, value any) error

	// Subscribe adds a message filter on a sub socket. The topic is a byte
	// prefix; the empty string subscribes to everything.
	Subscribe(topic string) error

	// Unsubscribe removes a previously added filter.
	Unsubscribe(topic string) error

	// Send transmits one message part. With FlagSndMore the part opens or
	// continues a multipart message. With FlagDontWait a send the engine
	// cannot accept fails EAGAIN instead of blocking.
	Send(data []byte, flags int) error

	// SendMultipart transmits parts as one atomically delivered message.
	SendMultipart(parts [][]byte, flags int) error

	// Recv returns the next message part. With FlagDontWait an empty queue
	// fails EAGAIN instead of blocking.
	Recv(flags int) ([]byte, error)

	// RecvMultipart returns all parts of the next message in order.
	RecvMultipart(flags int) ([][]byte, error)

	// HasPollin reports whether a recv would complete without blocking.
	HasPollin() (bool, error)

	// HasPollout reports whether a send would complete without blocking.
	HasPollout() (bool, error)

	// GetLinger and SetLinger access the close grace period in
	// milliseconds: -1 waits for unsent messages indefinitely, 0 discards
	// them immediately.
	GetLinger() (int, error)
	SetLinger(ms int) error

	// GetIdentity and SetIdentity access the routing identity peers see.
	GetIdentity() (string, error)
	SetIdentity(id string) error

	// GetFD returns the descriptor a host event loop can register for
	// readiness, to be drained with non-blocking recvs on wake.
	GetFD() (int, error)

	// GetLastEndpoint returns the endpoint of the last bind or connect,
	// with wildcard ports resolved. The option exists from 3.x on.
	GetLastEndpoint() (string, error)

	// DieOnError and SetDieOnError access the error policy described on
	// the interface. The default is true.
	DieOnError() bool
	SetDieOnError(on bool)

	// HasError, LastErrno and LastError expose the sticky error state of
	// the most recent native call on this socket.
	HasError() bool
	LastErrno() int
	LastError() string

	// Close releases the native handle and the socket's hold on its
	// context. Idempotent; ignored when called from a process or scope
	// that did not create the socket.
	Close() error

	core() *socketCore
}

// socketCore carries the state and shared operations of every revision
// variant. The owner field is the ownership edge: it keeps the creating
// context reachable until the socket is closed, so a context is never
// finalized out from under live sockets.
type socketCore struct {
	desc   *backend.Descriptor
	funcs  *native.Funcs
	handle native.Sock
	typ    consts.SocketType
	owner  Context
	rec    *lifecycle.Record

	dieOnError bool
	lastErrno  int
	lastText   string
}

func (s *socketCore) core() *socketCore { return s }

func (s *socketCore) Type() consts.SocketType { return s.typ }

func (s *socketCore) live(op string) error {
	if !s.rec.Live() {
		return errors.Closed(errors.PhaseSocket, op, s.rec.Label())
	}
	return nil
}

// checkNative applies the die-on-error policy to one native call result.
// Success clears the sticky error state; failure records it, and the policy
// decides whether the caller sees an error or proceeds best-effort.
func (s *socketCore) checkNative(nerr *native.Error) error {
	if nerr == nil {
		s.lastErrno, s.lastText = 0, ""
		return nil
	}
	s.lastErrno, s.lastText = nerr.Errno, nerr.Text
	if !s.dieOnError {
		return nil
	}
	return errors.Native(errors.PhaseSocket, nerr.Fn, nerr.Errno, nerr.Text)
}

// checkAddress records endpoint failures in the sticky state but always
// returns them; a bad endpoint is a configuration mistake, not a transient
// condition the policy should swallow.
func (s *socketCore) checkAddress(endpoint string, nerr *native.Error) error {
	if nerr == nil {
		s.lastErrno, s.lastText = 0, ""
		return nil
	}
	s.lastErrno, s.lastText = nerr.Errno, nerr.Text
	return errors.Address(nerr.Fn, endpoint, nerr.Errno, nerr.Text)
}

func (s *socketCore) Bind(endpoint string) error {
	if err := s.live("bind"); err != nil {
		return err
	}
	return s.checkAddress(endpoint, s.funcs.Bind(s.handle, endpoint))
}

func (s *socketCore) Connect(endpoint string) error {
	if err := s.live("connect"); err != nil {
		return err
	}
	return s.checkAddress(endpoint, s.funcs.Connect(s.handle, endpoint))
}

func (s *socketCore) Unbind(endpoint string) error {
	if err := s.live("unbind"); err != nil {
		return err
	}
	return s.checkAddress(endpoint, s.funcs.Unbind(s.handle, endpoint))
}

func (s *socketCore) Disconnect(endpoint string) error {
	if err := s.live("disconnect"); err != nil {
		return err
	}
	return s.checkAddress(endpoint, s.funcs.Disconnect(s.handle, endpoint))
}

func (s *socketCore) Get(option int, typ backend.OptionType) (any, error) {
	const op = "get"
	if err := s.live(op); err != nil {
		return nil, err
	}
	if want, known := s.desc.OptionType(option); known && want != typ {
		return nil, errors.TypeMismatch(op, codec.OptionLabel(option), want.String(), typ.String())
	}
	raw, nerr := s.funcs.GetOpt(s.handle, option, codec.GetSize(typ))
	if err := s.checkNative(nerr); err != nil {
		return nil, err
	}
	if nerr != nil {
		return nil, nil
	}
	return codec.Decode(op, option, typ, raw)
}

func (s *socketCore) Set(option int, typ backend.OptionType, value any) error {
	const op = "set"
	if err := s.live(op); err != nil {
		return err
	}
	if want, known := s.desc.OptionType(option); known && want != typ {
		return errors.TypeMismatch(op, codec.OptionLabel(option), want.String(), typ.String())
	}
	raw, err := codec.Encode(op, option, typ, value)
	if err != nil {
		return err
	}
	return s.checkNative(s.funcs.SetOpt(s.handle, option, raw))
}

func (s *socketCore) Subscribe(topic string) error {
	if err := s.live("subscribe"); err != nil {
		return err
	}
	return s.checkNative(s.funcs.SetOpt(s.handle, consts.OptSubscribe, []byte(topic)))
}

func (s *socketCore) Unsubscribe(topic string) error {
	if err := s.live("unsubscribe"); err != nil {
		return err
	}
	return s.checkNative(s.funcs.SetOpt(s.handle, consts.OptUnsubscribe, []byte(topic)))
}

func (s *socketCore) Send(data []byte, flags int) error {
	if err := s.live("send"); err != nil {
		return err
	}
	return s.checkNative(s.funcs.Send(s.handle, data, flags))
}

func (s *socketCore) SendMultipart(parts [][]byte, flags int) error {
	if err := s.live("send_multipart"); err != nil {
		return err
	}
	if len(parts) == 0 {
		return errors.InvalidInput(errors.PhaseSocket, "multipart message needs at least one part")
	}
	for i, part := range parts {
		f := flags
		if i < len(parts)-1 {
			f |= consts.FlagSndMore
		}
		nerr := s.funcs.Send(s.handle, part, f)
		if err := s.checkNative(nerr); err != nil {
			return err
		}
		if nerr != nil {
			// Policy disabled: the failure is recorded, remaining parts
			// are abandoned with the engine's pending state.
			return nil
		}
	}
	return nil
}

func (s *socketCore) Recv(flags int) ([]byte, error) {
	if err := s.live("recv"); err != nil {
		return nil, err
	}
	data, nerr := s.funcs.Recv(s.handle, flags)
	if err := s.checkNative(nerr); err != nil {
		return nil, err
	}
	if nerr != nil {
		return []byte{}, nil
	}
	return data, nil
}

func (s *socketCore) RecvMultipart(flags int) ([][]byte, error) {
	if err := s.live("recv_multipart"); err != nil {
		return nil, err
	}
	var parts [][]byte
	for {
		data, nerr := s.funcs.Recv(s.handle, flags)
		if err := s.checkNative(nerr); err != nil {
			return nil, err
		}
		if nerr != nil {
			return parts, nil
		}
		parts = append(parts, data)
		more, err := s.rcvMore()
		if err != nil {
			return nil, err
		}
		if !more {
			return parts, nil
		}
	}
}

// rcvMore reads the more-parts flag through the revision's own typing: a
// 64-bit value on 2.x engines, a plain int from 3.x on. Failures here are
// protocol-state corruption mid-message and bypass the die-on-error policy.
func (s *socketCore) rcvMore() (bool, error) {
	typ, ok := s.desc.OptionType(consts.OptRcvMore)
	if !ok {
		typ = backend.TypeInt
	}
	raw, nerr := s.funcs.GetOpt(s.handle, consts.OptRcvMore, codec.GetSize(typ))
	if nerr != nil {
		return false, errors.Native(errors.PhaseSocket, nerr.Fn, nerr.Errno, nerr.Text)
	}
	v, err := codec.Decode("recv_multipart", consts.OptRcvMore, typ, raw)
	if err != nil {
		return false, err
	}
	n, _ := codec.AsInt(v)
	return n != 0, nil
}

func (s *socketCore) HasPollin() (bool, error) {
	return s.pollBit(consts.PollIn)
}

func (s *socketCore) HasPollout() (bool, error) {
	return s.pollBit(consts.PollOut)
}

func (s *socketCore) pollBit(bit int) (bool, error) {
	v, err := s.Get(consts.OptEvents, backend.TypeInt)
	if err != nil {
		return false, err
	}
	n, _ := codec.AsInt(v)
	return n&bit != 0, nil
}

func (s *socketCore) GetLinger() (int, error) {
	v, err := s.Get(consts.OptLinger, backend.TypeInt)
	if err != nil {
		return 0, err
	}
	n, _ := codec.AsInt(v)
	return n, nil
}

func (s *socketCore) SetLinger(ms int) error {
	return s.Set(consts.OptLinger, backend.TypeInt, ms)
}

func (s *socketCore) GetIdentity() (string, error) {
	v, err := s.Get(consts.OptIdentity, backend.TypeBinary)
	if err != nil {
		return "", err
	}
	b, _ := v.([]byte)
	return string(b), nil
}

func (s *socketCore) SetIdentity(id string) error {
	return s.Set(consts.OptIdentity, backend.TypeBinary, id)
}

func (s *socketCore) GetFD() (int, error) {
	v, err := s.Get(consts.OptFD, backend.TypeInt)
	if err != nil {
		return 0, err
	}
	n, _ := codec.AsInt(v)
	return n, nil
}

func (s *socketCore) GetLastEndpoint() (string, error) {
	v, err := s.Get(consts.OptLastEndpoint, backend.TypeString)
	if err != nil {
		return "", err
	}
	str, _ := v.(string)
	return str, nil
}

func (s *socketCore) DieOnError() bool      { return s.dieOnError }
func (s *socketCore) SetDieOnError(on bool) { s.dieOnError = on }

func (s *socketCore) HasError() bool    { return s.lastErrno != 0 }
func (s *socketCore) LastErrno() int    { return s.lastErrno }
func (s *socketCore) LastError() string { return s.lastText }

func (s *socketCore) Close() error {
	return s.rec.Teardown()
}

// releaseNative is the lifecycle release hook. Dropping the owner reference
// is what lets an otherwise-unreferenced context become collectable once its
// last socket is gone.
func (s *socketCore) releaseNative() error {
	nerr := s.funcs.Close(s.handle)
	s.owner = nil
	if nerr != nil {
		return errors.Native(errors.PhaseTeardown, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return nil
}
