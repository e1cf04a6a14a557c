package memengine

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

// engSocket is one emulated native socket. Data-plane operations follow the
// engine's one-goroutine-per-socket rule; option reads, including the events
// computation, may come from any goroutine and take the mutex.
type engSocket struct {
	eng    *Engine
	ctx    *engCtx
	handle uint32
	typ    consts.SocketType
	fd     int
	autoID []byte

	closed flag

	mu sync.Mutex

	// options
	linger       int
	sndHWM       int
	rcvHWM       int
	rcvTimeo     int
	sndTimeo     int
	maxMsgSize   int64
	identity     []byte
	mandatory    bool
	subs         [][]byte
	rawOpts      map[int][]byte
	lastEndpoint string

	// wiring
	wires []*wire

	// receive assembly
	current message
	rcvMore bool
	lastIn  int

	// send assembly
	pending message
	lastOut int

	// req/rep lockstep
	awaitingReply bool
	reqWire       *wire
	repWire       *wire
	repEnvelope   message
}

func (e *Engine) maxSocketType() consts.SocketType {
	switch e.version[0] {
	case 2:
		return consts.Push
	case 3:
		return consts.XSub
	}
	return consts.Stream
}

// autoIdentity builds the routing identity the engine assigns to peers that
// never set one. The leading zero byte marks it engine-generated.
func autoIdentity() []byte {
	id := uuid.New()
	b := make([]byte, 16)
	copy(b[1:], id[:15])
	return b
}

func (e *Engine) newSocket(c *engCtx, socketType int) (*engSocket, *native.Error) {
	st := consts.SocketType(socketType)
	if st < consts.Pair || st > e.maxSocketType() {
		return nil, native.Errf("zmq_socket", consts.EInval, "invalid socket type %d", socketType)
	}
	s := &engSocket{
		eng:        e,
		ctx:        c,
		typ:        st,
		fd:         e.allocFD(),
		autoID:     autoIdentity(),
		linger:     -1,
		sndHWM:     defaultHWM,
		rcvHWM:     defaultHWM,
		rcvTimeo:   -1,
		sndTimeo:   -1,
		maxMsgSize: -1,
		rawOpts:    make(map[int][]byte),
	}
	if nerr := c.addSocket(s); nerr != nil {
		return nil, nerr
	}
	s.handle = e.tbl.insert(kindSock, s)
	return s, nil
}

func (s *engSocket) isClosed() bool {
	return s.closed.isSet()
}

// routingIDLocked is the identity peers route to: the set identity, or the
// engine-assigned one. Caller holds s.mu.
func (s *engSocket) routingIDLocked() []byte {
	if len(s.identity) > 0 {
		return s.identity
	}
	return s.autoID
}

func (s *engSocket) snapshotWires() []*wire {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*wire, len(s.wires))
	copy(out, s.wires)
	return out
}

func (s *engSocket) attach(w *wire) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wires = append(s.wires, w)
}

// gcWires drops wires that can deliver nothing further.
func (s *engSocket) gcWires() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.wires[:0]
	for _, w := range s.wires {
		if w.dead(s) {
			continue
		}
		kept = append(kept, w)
	}
	s.wires = kept
}

// hwmSum is the engine's inproc pipe capacity rule: sender high-water mark
// plus receiver high-water mark, unlimited when either side says unlimited.
func hwmSum(snd, rcv int) int {
	if snd == 0 || rcv == 0 {
		return 0
	}
	return snd + rcv
}

func (s *engSocket) bind(fn, endpoint string) *native.Error {
	if s.isClosed() {
		return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	if nerr := s.eng.bindName(fn, endpoint, s); nerr != nil {
		return nerr
	}
	s.mu.Lock()
	s.lastEndpoint = endpoint
	s.mu.Unlock()
	return nil
}

func (s *engSocket) connect(fn, endpoint string) *native.Error {
	if s.isClosed() {
		return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	name, nerr := parseEndpoint(fn, endpoint)
	if nerr != nil {
		return nerr
	}
	binder, ok := s.eng.lookupName(name)
	if !ok || binder.isClosed() {
		return native.Errf(fn, consts.EConnRefused, "%s", consts.Strerror(consts.EConnRefused))
	}

	s.mu.Lock()
	cliSnd, cliRcv := s.sndHWM, s.rcvHWM
	cliID := append([]byte(nil), s.routingIDLocked()...)
	s.lastEndpoint = endpoint
	s.mu.Unlock()

	binder.mu.Lock()
	srvSnd, srvRcv := binder.sndHWM, binder.rcvHWM
	srvID := append([]byte(nil), binder.routingIDLocked()...)
	binder.mu.Unlock()

	w := &wire{
		cli:      s,
		srv:      binder,
		c2s:      newPipe(hwmSum(cliSnd, srvRcv)),
		s2c:      newPipe(hwmSum(srvSnd, cliRcv)),
		idOfCli:  cliID,
		idOfSrv:  srvID,
		endpoint: endpoint,
	}
	s.attach(w)
	binder.attach(w)
	return nil
}

func (s *engSocket) unbind(fn, endpoint string) *native.Error {
	if s.isClosed() {
		return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	return s.eng.unbindName(fn, endpoint, s)
}

func (s *engSocket) disconnect(fn, endpoint string) *native.Error {
	if s.isClosed() {
		return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	for _, w := range s.snapshotWires() {
		if w.cli == s && w.endpoint == endpoint && !w.isClosed() {
			w.close()
			s.gcWires()
			return nil
		}
	}
	return native.Errf(fn, consts.ENoEnt, "endpoint %q not connected", endpoint)
}

// Option value codecs. The engine speaks the platform's native byte order,
// like the real one.

var hostOrder = binary.NativeEndian

func optInt(fn string, value []byte) (int, *native.Error) {
	if len(value) != 4 {
		return 0, native.Errf(fn, consts.EInval, "option value size %d, want 4", len(value))
	}
	return int(int32(hostOrder.Uint32(value))), nil
}

func optInt64(fn string, value []byte) (int64, *native.Error) {
	if len(value) != 8 {
		return 0, native.Errf(fn, consts.EInval, "option value size %d, want 8", len(value))
	}
	return int64(hostOrder.Uint64(value)), nil
}

func optUint64(fn string, value []byte) (uint64, *native.Error) {
	if len(value) != 8 {
		return 0, native.Errf(fn, consts.EInval, "option value size %d, want 8", len(value))
	}
	return hostOrder.Uint64(value), nil
}

func encInt(v int) []byte {
	b := make([]byte, 4)
	hostOrder.PutUint32(b, uint32(int32(v)))
	return b
}

func encInt64(v int64) []byte {
	b := make([]byte, 8)
	hostOrder.PutUint64(b, uint64(v))
	return b
}

func encUint64(v uint64) []byte {
	b := make([]byte, 8)
	hostOrder.PutUint64(b, v)
	return b
}

func (s *engSocket) setOpt(fn string, option int, value []byte) *native.Error {
	if s.isClosed() {
		return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	legacy := s.eng.legacy()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch option {
	case consts.OptLinger:
		v, nerr := optInt(fn, value)
		if nerr != nil {
			return nerr
		}
		s.linger = v
		return nil

	case consts.OptHWM:
		if !legacy {
			return native.Errf(fn, consts.EInval, "hwm is a 2.x option")
		}
		v, nerr := optUint64(fn, value)
		if nerr != nil {
			return nerr
		}
		s.sndHWM = int(v)
		s.rcvHWM = int(v)
		return nil

	case consts.OptSndHWM, consts.OptRcvHWM:
		if legacy {
			return native.Errf(fn, consts.EInval, "split hwm options need 3.x+")
		}
		v, nerr := optInt(fn, value)
		if nerr != nil {
			return nerr
		}
		if v < 0 {
			return native.Errf(fn, consts.EInval, "hwm %d out of range", v)
		}
		if option == consts.OptSndHWM {
			s.sndHWM = v
		} else {
			s.rcvHWM = v
		}
		return nil

	case consts.OptRcvTimeo, consts.OptSndTimeo:
		v, nerr := optInt(fn, value)
		if nerr != nil {
			return nerr
		}
		if option == consts.OptRcvTimeo {
			s.rcvTimeo = v
		} else {
			s.sndTimeo = v
		}
		return nil

	case consts.OptMaxMsgSize:
		if legacy {
			return native.Errf(fn, consts.EInval, "maxmsgsize needs 3.x+")
		}
		v, nerr := optInt64(fn, value)
		if nerr != nil {
			return nerr
		}
		s.maxMsgSize = v
		return nil

	case consts.OptIdentity:
		if len(value) == 0 || len(value) > 255 {
			return native.Errf(fn, consts.EInval, "identity length %d out of range", len(value))
		}
		if value[0] == 0 {
			return native.Errf(fn, consts.EInval, "identity may not start with a zero byte")
		}
		s.identity = append([]byte(nil), value...)
		return nil

	case consts.OptSubscribe:
		if s.typ != consts.Sub && s.typ != consts.XSub {
			return native.Errf(fn, consts.EInval, "subscribe on %s socket", s.typ)
		}
		s.subs = append(s.subs, append([]byte(nil), value...))
		return nil

	case consts.OptUnsubscribe:
		if s.typ != consts.Sub && s.typ != consts.XSub {
			return native.Errf(fn, consts.EInval, "unsubscribe on %s socket", s.typ)
		}
		for i, sub := range s.subs {
			if bytes.Equal(sub, value) {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return nil
			}
		}
		return native.Errf(fn, consts.EInval, "no such subscription")

	case consts.OptRouterMandatory:
		if s.typ != consts.Router {
			return native.Errf(fn, consts.EInval, "router_mandatory on %s socket", s.typ)
		}
		v, nerr := optInt(fn, value)
		if nerr != nil {
			return nerr
		}
		s.mandatory = v != 0
		return nil

	case consts.OptRcvMore, consts.OptFD, consts.OptEvents, consts.OptType,
		consts.OptLastEndpoint, consts.OptMechanism:
		return native.Errf(fn, consts.EInval, "%s is read-only", consts.OptionName(option))
	}

	if consts.OptionName(option) == "" {
		return native.Errf(fn, consts.EInval, "unknown option %d", option)
	}
	if legacy && option > consts.OptReconnectIVLMax {
		return native.Errf(fn, consts.EInval, "option %d needs 3.x+", option)
	}
	s.rawOpts[option] = append([]byte(nil), value...)
	return nil
}

func (s *engSocket) getOpt(fn string, option, size int) ([]byte, *native.Error) {
	if s.isClosed() {
		return nil, native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
	}
	legacy := s.eng.legacy()

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []byte
	switch option {
	case consts.OptRcvMore:
		more := 0
		if s.rcvMore {
			more = 1
		}
		if legacy {
			out = encInt64(int64(more))
		} else {
			out = encInt(more)
		}

	case consts.OptEvents:
		out = encInt(s.eventsLocked())

	case consts.OptFD:
		out = encInt(s.fd)

	case consts.OptType:
		out = encInt(int(s.typ))

	case consts.OptLinger:
		out = encInt(s.linger)

	case consts.OptRcvTimeo:
		out = encInt(s.rcvTimeo)

	case consts.OptSndTimeo:
		out = encInt(s.sndTimeo)

	case consts.OptHWM:
		if !legacy {
			return nil, native.Errf(fn, consts.EInval, "hwm is a 2.x option")
		}
		out = encUint64(uint64(s.sndHWM))

	case consts.OptSndHWM:
		if legacy {
			return nil, native.Errf(fn, consts.EInval, "split hwm options need 3.x+")
		}
		out = encInt(s.sndHWM)

	case consts.OptRcvHWM:
		if legacy {
			return nil, native.Errf(fn, consts.EInval, "split hwm options need 3.x+")
		}
		out = encInt(s.rcvHWM)

	case consts.OptMaxMsgSize:
		if legacy {
			return nil, native.Errf(fn, consts.EInval, "maxmsgsize needs 3.x+")
		}
		out = encInt64(s.maxMsgSize)

	case consts.OptIdentity:
		out = append([]byte(nil), s.identity...)

	case consts.OptLastEndpoint:
		if legacy {
			return nil, native.Errf(fn, consts.EInval, "last_endpoint needs 3.x+")
		}
		out = append([]byte(s.lastEndpoint), 0)

	case consts.OptMechanism:
		if legacy {
			return nil, native.Errf(fn, consts.EInval, "mechanism needs 4.x")
		}
		out = encInt(0)

	default:
		raw, ok := s.rawOpts[option]
		if !ok {
			return nil, native.Errf(fn, consts.EInval, "unknown option %d", option)
		}
		out = append([]byte(nil), raw...)
	}

	if len(out) > size {
		return nil, native.Errf(fn, consts.EInval, "option value needs %d bytes, buffer is %d", len(out), size)
	}
	return out, nil
}

// matchSub reports whether topic passes the socket's subscription filter.
// Only sub/xsub filter; anything else accepts everything.
func (s *engSocket) matchSub(topic []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if bytes.HasPrefix(topic, sub) {
			return true
		}
	}
	return false
}
