package consts

// SocketType identifies a messaging pattern endpoint kind.
type SocketType int

// Socket types. The numeric values are shared by every supported engine
// revision; XPub/XSub exist from 3.x and Stream from 4.x, which the backend
// capability tables enforce.
const (
	Pair   SocketType = 0
	Pub    SocketType = 1
	Sub    SocketType = 2
	Req    SocketType = 3
	Rep    SocketType = 4
	Dealer SocketType = 5
	Router SocketType = 6
	Pull   SocketType = 7
	Push   SocketType = 8
	XPub   SocketType = 9
	XSub   SocketType = 10
	Stream SocketType = 11
)

// String returns the lowercase conventional name of the socket type.
func (t SocketType) String() string {
	switch t {
	case Pair:
		return "pair"
	case Pub:
		return "pub"
	case Sub:
		return "sub"
	case Req:
		return "req"
	case Rep:
		return "rep"
	case Dealer:
		return "dealer"
	case Router:
		return "router"
	case Pull:
		return "pull"
	case Push:
		return "push"
	case XPub:
		return "xpub"
	case XSub:
		return "xsub"
	case Stream:
		return "stream"
	}
	return "unknown"
}

// SocketTypeNamed resolves a conventional name back to its socket type.
func SocketTypeNamed(name string) (SocketType, bool) {
	for t := Pair; t <= Stream; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// DeviceType identifies a built-in forwarding device of 2.x engines.
type DeviceType int

// Device types accepted by the 2.x device entry point.
const (
	Streamer  DeviceType = 1
	Forwarder DeviceType = 2
	Queue     DeviceType = 3
)

// Socket option ids. Ids below MaxMsgSize predate the 3.x line; ids from
// MaxMsgSize up were introduced in 3.x or later. Availability and value
// typing per revision live in the backend capability tables.
const (
	OptHWM             = 1 // 2.x only, u64, split into SndHWM/RcvHWM in 3.x
	OptSwap            = 3 // 2.x only
	OptAffinity        = 4
	OptIdentity        = 5
	OptSubscribe       = 6
	OptUnsubscribe     = 7
	OptRate            = 8
	OptRecoveryIVL     = 9
	OptMcastLoop       = 10 // 2.x only
	OptSndBuf          = 11
	OptRcvBuf          = 12
	OptRcvMore         = 13 // u64 in 2.x, int from 3.x
	OptFD              = 14
	OptEvents          = 15 // u32 in 2.x, int from 3.x
	OptType            = 16
	OptLinger          = 17
	OptReconnectIVL    = 18
	OptBacklog         = 19
	OptReconnectIVLMax = 21

	OptMaxMsgSize    = 22
	OptSndHWM        = 23
	OptRcvHWM        = 24
	OptMulticastHops = 25
	OptRcvTimeo      = 27
	OptSndTimeo      = 28
	OptIPv4Only      = 31
	OptLastEndpoint  = 32

	OptRouterMandatory  = 33
	OptTCPKeepalive     = 34
	OptTCPKeepaliveCnt  = 35
	OptTCPKeepaliveIdle = 36
	OptTCPKeepaliveIntv = 37
	OptImmediate        = 39
	OptXPubVerbose      = 40
	OptIPv6             = 42

	OptMechanism      = 43
	OptPlainServer    = 44
	OptPlainUsername  = 45
	OptPlainPassword  = 46
	OptCurveServer    = 47
	OptCurvePublicKey = 48
	OptCurveSecretKey = 49
	OptCurveServerKey = 50
	OptProbeRouter    = 51
	OptReqCorrelate   = 52
	OptReqRelaxed     = 53
	OptConflate       = 54
	OptZAPDomain      = 55

	OptRouterHandover = 56
	OptTOS            = 57
	OptConnectRID     = 61
	OptGSSAPIServer   = 62
	OptHandshakeIVL   = 66
	OptSocksProxy     = 68
	OptXPubNoDrop     = 69
)

// Context option ids, 3.x and later.
const (
	CtxIOThreads   = 1
	CtxMaxSockets  = 2
	CtxSocketLimit = 3
	CtxIPv6        = 42
)

// Send/recv flag bits. DontWait was named NOBLOCK in 2.x; the bit is the
// same.
const (
	FlagDontWait = 1
	FlagSndMore  = 2
)

// Readiness bits reported by the events option.
const (
	PollIn  = 1
	PollOut = 2
	PollErr = 4
)

var optionNames = map[int]string{
	OptHWM:              "hwm",
	OptSwap:             "swap",
	OptAffinity:         "affinity",
	OptIdentity:         "identity",
	OptSubscribe:        "subscribe",
	OptUnsubscribe:      "unsubscribe",
	OptRate:             "rate",
	OptRecoveryIVL:      "recovery_ivl",
	OptMcastLoop:        "mcast_loop",
	OptSndBuf:           "sndbuf",
	OptRcvBuf:           "rcvbuf",
	OptRcvMore:          "rcvmore",
	OptFD:               "fd",
	OptEvents:           "events",
	OptType:             "type",
	OptLinger:           "linger",
	OptReconnectIVL:     "reconnect_ivl",
	OptBacklog:          "backlog",
	OptReconnectIVLMax:  "reconnect_ivl_max",
	OptMaxMsgSize:       "maxmsgsize",
	OptSndHWM:           "sndhwm",
	OptRcvHWM:           "rcvhwm",
	OptMulticastHops:    "multicast_hops",
	OptRcvTimeo:         "rcvtimeo",
	OptSndTimeo:         "sndtimeo",
	OptIPv4Only:         "ipv4only",
	OptLastEndpoint:     "last_endpoint",
	OptRouterMandatory:  "router_mandatory",
	OptTCPKeepalive:     "tcp_keepalive",
	OptTCPKeepaliveCnt:  "tcp_keepalive_cnt",
	OptTCPKeepaliveIdle: "tcp_keepalive_idle",
	OptTCPKeepaliveIntv: "tcp_keepalive_intvl",
	OptImmediate:        "immediate",
	OptXPubVerbose:      "xpub_verbose",
	OptIPv6:             "ipv6",
	OptMechanism:        "mechanism",
	OptPlainServer:      "plain_server",
	OptPlainUsername:    "plain_username",
	OptPlainPassword:    "plain_password",
	OptCurveServer:      "curve_server",
	OptCurvePublicKey:   "curve_publickey",
	OptCurveSecretKey:   "curve_secretkey",
	OptCurveServerKey:   "curve_serverkey",
	OptProbeRouter:      "probe_router",
	OptReqCorrelate:     "req_correlate",
	OptReqRelaxed:       "req_relaxed",
	OptConflate:         "conflate",
	OptZAPDomain:        "zap_domain",
	OptRouterHandover:   "router_handover",
	OptTOS:              "tos",
	OptConnectRID:       "connect_rid",
	OptGSSAPIServer:     "gssapi_server",
	OptHandshakeIVL:     "handshake_ivl",
	OptSocksProxy:       "socks_proxy",
	OptXPubNoDrop:       "xpub_nodrop",
}

// OptionName returns the conventional lowercase name of a socket option id,
// or the empty string when the id is not a known option.
func OptionName(id int) string {
	return optionNames[id]
}
