package backend

import "github.com/semifor/zmq-ffi/consts"

func opSet(ops ...Op) map[Op]struct{} {
	m := make(map[Op]struct{}, len(ops))
	for _, op := range ops {
		m[op] = struct{}{}
	}
	return m
}

func idSet(ids ...int) map[int]struct{} {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// merge copies base and lays extra over it. Later tables may narrow a type,
// which is how the 2.x 64-bit legacy encodings give way to plain ints.
func merge(base, extra map[int]OptionType) map[int]OptionType {
	m := make(map[int]OptionType, len(base)+len(extra))
	for id, t := range base {
		m[id] = t
	}
	for id, t := range extra {
		m[id] = t
	}
	return m
}

// v2Opts is the 2.x socket option table. The line predates the int
// normalization, so throughput and buffer options carry 64-bit encodings.
var v2Opts = map[int]OptionType{
	consts.OptHWM:             TypeUint64,
	consts.OptSwap:            TypeInt64,
	consts.OptAffinity:        TypeUint64,
	consts.OptIdentity:        TypeBinary,
	consts.OptSubscribe:       TypeBinary,
	consts.OptUnsubscribe:     TypeBinary,
	consts.OptRate:            TypeInt64,
	consts.OptRecoveryIVL:     TypeInt64,
	consts.OptMcastLoop:       TypeInt64,
	consts.OptSndBuf:          TypeUint64,
	consts.OptRcvBuf:          TypeUint64,
	consts.OptRcvMore:         TypeInt64,
	consts.OptFD:              TypeInt,
	consts.OptEvents:          TypeInt,
	consts.OptType:            TypeInt,
	consts.OptLinger:          TypeInt,
	consts.OptReconnectIVL:    TypeInt,
	consts.OptBacklog:         TypeInt,
	consts.OptReconnectIVLMax: TypeInt,
}

// v3Opts is the 3.x table: the legacy 64-bit options are gone or re-typed,
// the high-water mark is split, and endpoint/timeout options appear.
var v3Opts = map[int]OptionType{
	consts.OptAffinity:        TypeUint64,
	consts.OptIdentity:        TypeBinary,
	consts.OptSubscribe:       TypeBinary,
	consts.OptUnsubscribe:     TypeBinary,
	consts.OptRate:            TypeInt,
	consts.OptRecoveryIVL:     TypeInt,
	consts.OptSndBuf:          TypeInt,
	consts.OptRcvBuf:          TypeInt,
	consts.OptRcvMore:         TypeInt,
	consts.OptFD:              TypeInt,
	consts.OptEvents:          TypeInt,
	consts.OptType:            TypeInt,
	consts.OptLinger:          TypeInt,
	consts.OptReconnectIVL:    TypeInt,
	consts.OptBacklog:         TypeInt,
	consts.OptReconnectIVLMax: TypeInt,

	consts.OptMaxMsgSize:    TypeInt64,
	consts.OptSndHWM:        TypeInt,
	consts.OptRcvHWM:        TypeInt,
	consts.OptMulticastHops: TypeInt,
	consts.OptRcvTimeo:      TypeInt,
	consts.OptSndTimeo:      TypeInt,
	consts.OptIPv4Only:      TypeInt,
	consts.OptLastEndpoint:  TypeString,

	consts.OptRouterMandatory:  TypeInt,
	consts.OptTCPKeepalive:     TypeInt,
	consts.OptTCPKeepaliveCnt:  TypeInt,
	consts.OptTCPKeepaliveIdle: TypeInt,
	consts.OptTCPKeepaliveIntv: TypeInt,
	consts.OptXPubVerbose:      TypeInt,
}

// v4Extra adds the 4.0 security mechanism options.
var v4Extra = map[int]OptionType{
	consts.OptImmediate:      TypeInt,
	consts.OptIPv6:           TypeInt,
	consts.OptMechanism:      TypeInt,
	consts.OptPlainServer:    TypeInt,
	consts.OptPlainUsername:  TypeString,
	consts.OptPlainPassword:  TypeString,
	consts.OptCurveServer:    TypeInt,
	consts.OptCurvePublicKey: TypeBinary,
	consts.OptCurveSecretKey: TypeBinary,
	consts.OptCurveServerKey: TypeBinary,
	consts.OptProbeRouter:    TypeInt,
	consts.OptReqCorrelate:   TypeInt,
	consts.OptReqRelaxed:     TypeInt,
	consts.OptConflate:       TypeInt,
	consts.OptZAPDomain:      TypeString,
}

// v41Extra adds the options introduced in the 4.1 line.
var v41Extra = map[int]OptionType{
	consts.OptRouterHandover: TypeInt,
	consts.OptTOS:            TypeInt,
	consts.OptConnectRID:     TypeBinary,
	consts.OptGSSAPIServer:   TypeInt,
	consts.OptHandshakeIVL:   TypeInt,
	consts.OptSocksProxy:     TypeString,
	consts.OptXPubNoDrop:     TypeInt,
}

var v2 = &Descriptor{
	Name:          "zmq2",
	Revision:      "2.x",
	ops:           opSet(OpDevice),
	sockOpts:      v2Opts,
	ctxOpts:       idSet(),
	maxSocketType: consts.Push,
}

var v3 = &Descriptor{
	Name:          "zmq3",
	Revision:      "3.x",
	ops:           opSet(OpCtxGet, OpCtxSet, OpUnbind, OpDisconnect, OpProxy),
	sockOpts:      v3Opts,
	ctxOpts:       idSet(consts.CtxIOThreads, consts.CtxMaxSockets),
	maxSocketType: consts.XSub,
}

var v4 = &Descriptor{
	Name:          "zmq4",
	Revision:      "4.0",
	ops:           opSet(OpCtxGet, OpCtxSet, OpUnbind, OpDisconnect, OpProxy),
	sockOpts:      merge(v3Opts, v4Extra),
	ctxOpts:       idSet(consts.CtxIOThreads, consts.CtxMaxSockets),
	maxSocketType: consts.Stream,
}

var v41 = &Descriptor{
	Name:          "zmq4.1",
	Revision:      "4.1+",
	ops:           opSet(OpCtxGet, OpCtxSet, OpUnbind, OpDisconnect, OpProxy),
	sockOpts:      merge(merge(v3Opts, v4Extra), v41Extra),
	ctxOpts:       idSet(consts.CtxIOThreads, consts.CtxMaxSockets, consts.CtxSocketLimit, consts.CtxIPv6),
	maxSocketType: consts.Stream,
}
