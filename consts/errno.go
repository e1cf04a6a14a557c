package consts

import (
	"fmt"
	"syscall"
)

// Hausnumero is the base of the engine's private errno space. Codes the
// platform already defines are reported with their platform values; codes the
// engine invented live above this base.
const Hausnumero = 156384712

// Engine-defined errno values.
const (
	EFSM           = Hausnumero + 51 // operation cannot be performed in current state
	ENoCompatProto = Hausnumero + 52
	ETerm          = Hausnumero + 53 // context was terminated
	EMThread       = Hausnumero + 54
)

// Platform errno values the engine reports. Exposed as plain ints so callers
// can compare against LastErrno and codes carried by native call errors.
var (
	EAgain           = int(syscall.EAGAIN)
	EInval           = int(syscall.EINVAL)
	ENoEnt           = int(syscall.ENOENT)
	EIntr            = int(syscall.EINTR)
	EFault           = int(syscall.EFAULT)
	EMFile           = int(syscall.EMFILE)
	ENotSup          = int(syscall.EOPNOTSUPP)
	EProtoNoSupport  = int(syscall.EPROTONOSUPPORT)
	EAddrInUse       = int(syscall.EADDRINUSE)
	EAddrNotAvail    = int(syscall.EADDRNOTAVAIL)
	EConnRefused     = int(syscall.ECONNREFUSED)
	EInProgress      = int(syscall.EINPROGRESS)
	ENotSock         = int(syscall.ENOTSOCK)
	EMsgSize         = int(syscall.EMSGSIZE)
	ENetDown         = int(syscall.ENETDOWN)
	ENoBufs          = int(syscall.ENOBUFS)
	EHostUnreach     = int(syscall.EHOSTUNREACH)
	ENetUnreach      = int(syscall.ENETUNREACH)
	EConnAborted     = int(syscall.ECONNABORTED)
	EConnReset       = int(syscall.ECONNRESET)
	ETimedOut        = int(syscall.ETIMEDOUT)
	EAfNoSupport     = int(syscall.EAFNOSUPPORT)
	ENotConn         = int(syscall.ENOTCONN)
	ENoDev           = int(syscall.ENODEV)
	EAccess          = int(syscall.EACCES)
	EBadF            = int(syscall.EBADF)
	ENoMem           = int(syscall.ENOMEM)
	EMLink           = int(syscall.EMLINK)
	ENameTooLong     = int(syscall.ENAMETOOLONG)
	ENotDir          = int(syscall.ENOTDIR)
	EProtoNotAllowed = int(syscall.EPERM)
)

// Strerror renders an errno the way the engine's own message table would.
// Engine-defined codes get the engine's wording; platform codes defer to the
// platform's message.
func Strerror(code int) string {
	switch code {
	case 0:
		return ""
	case EFSM:
		return "Operation cannot be accomplished in current state"
	case ENoCompatProto:
		return "The protocol is not compatible with the socket type"
	case ETerm:
		return "Context was terminated"
	case EMThread:
		return "No thread available"
	}
	if code > Hausnumero {
		return fmt.Sprintf("Unknown error %d", code)
	}
	return syscall.Errno(code).Error()
}
