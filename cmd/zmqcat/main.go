package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	zmqffi "github.com/semifor/zmq-ffi"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/ffi"
	"github.com/semifor/zmq-ffi/lifecycle"
	"github.com/semifor/zmq-ffi/memengine"
)

func main() {
	var (
		endpoint    = flag.String("endpoint", "", "Endpoint to connect to (bind with -bind)")
		typeName    = flag.String("type", "", "Socket type: push, pull, pub, sub, pair, dealer, ... (default: pull, or push when stdin is piped)")
		bind        = flag.Bool("bind", false, "Bind the endpoint instead of connecting")
		subs        = flag.String("sub", "", "Subscription prefixes, comma-separated (default for sub sockets: everything)")
		limit       = flag.Float64("rate", 0, "Maximum messages per second to send (0 = unlimited)")
		profilePath = flag.String("profile", "", "YAML profile with endpoint, type, options and subscriptions")
		interactive = flag.Bool("i", false, "Interactive monitor TUI")
		mem         = flag.Bool("mem", false, "Run on the in-memory engine (inproc endpoints only)")
		soname      = flag.String("soname", "", "Engine library name or path")
		verbose     = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	prof := &Profile{}
	if *profilePath != "" {
		loaded, err := LoadProfile(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		prof = loaded
	}
	if *endpoint != "" {
		prof.Endpoint = *endpoint
	}
	if *typeName != "" {
		prof.Type = *typeName
	}
	if *bind {
		prof.Bind = true
	}
	if *subs != "" {
		prof.Subscribe = append(prof.Subscribe, strings.Split(*subs, ",")...)
	}
	if *limit > 0 {
		prof.Rate = *limit
	}
	if prof.Type == "" {
		prof.Type = "pull"
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			prof.Type = "push"
		}
	}

	if prof.Endpoint == "" {
		fmt.Fprintln(os.Stderr, "Usage: zmqcat -endpoint <endpoint> [-type push|pull|pub|sub|...] [-bind] [-sub prefix,...]")
		fmt.Fprintln(os.Stderr, "       zmqcat -profile <file.yaml>")
		fmt.Fprintln(os.Stderr, "       zmqcat -endpoint <endpoint> -i  (interactive monitor)")
		os.Exit(1)
	}
	if err := prof.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(prof, *interactive, *mem, *soname, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(p *Profile, interactive, mem bool, soname string, verbose bool) error {
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		zmqffi.SetLogger(log)
		lifecycle.SetLogger(log)
		ffi.SetLogger(log)
		memengine.SetLogger(log)
	}

	var opts []zmqffi.Option
	if soname != "" {
		opts = append(opts, zmqffi.WithSoname(soname))
	}
	if mem {
		eng := memengine.New()
		defer eng.Close()
		opts = append(opts, zmqffi.WithDriver(eng))
	}
	ctx, err := zmqffi.New(opts...)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	typ := p.SocketType()
	s, err := ctx.Socket(typ)
	if err != nil {
		return err
	}
	if err := p.Apply(s); err != nil {
		return err
	}
	if typ == consts.Sub && len(p.Subscribe) == 0 {
		if err := s.Subscribe(""); err != nil {
			return err
		}
	}

	if p.Bind {
		if err := s.Bind(p.Endpoint); err != nil {
			return err
		}
		bound := p.Endpoint
		if last, err := s.GetLastEndpoint(); err == nil && last != "" {
			// Resolves wildcard binds to the concrete endpoint.
			bound = last
		}
		fmt.Fprintf(os.Stderr, "bound %s (%s)\n", bound, typ)
	} else {
		if err := s.Connect(p.Endpoint); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "connected %s (%s)\n", p.Endpoint, typ)
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runMonitor(s, p)
	}
	if sendMode(typ) {
		return sendLoop(s, p.Rate)
	}
	return recvLoop(ctx, s)
}

// sendMode decides the pump direction. Pure senders and pure receivers are
// fixed; bidirectional types follow stdin, pumping it out when piped.
func sendMode(typ consts.SocketType) bool {
	switch typ {
	case consts.Push, consts.Pub:
		return true
	case consts.Pull, consts.Sub, consts.XSub:
		return false
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// sendLoop pumps stdin lines to the socket, one message per line.
func sendLoop(s zmqffi.Socket, limit float64) error {
	var limiter *rate.Limiter
	if limit > 0 {
		limiter = rate.NewLimiter(rate.Limit(limit), 1)
	}

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sent := 0
	for sc.Scan() {
		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				return err
			}
		}
		if err := s.Send(sc.Bytes(), 0); err != nil {
			return err
		}
		sent++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d message(s) sent\n", sent)
	return nil
}

// recvLoop pumps received messages to stdout, one line per part, until the
// context is torn down.
func recvLoop(ctx zmqffi.Context, s zmqffi.Socket) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// Destroying the context interrupts the blocked receive with ETERM.
		_ = ctx.Destroy()
	}()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for {
		parts, err := s.RecvMultipart(0)
		if err != nil {
			if errors.IsKind(err, errors.KindClosed) {
				return nil
			}
			if code, ok := errors.ErrnoOf(err); ok {
				switch code {
				case consts.ETerm, consts.ENotSock:
					// Teardown closes the socket and then the context; the
					// parked receive surfaces whichever it observed first.
					return nil
				case consts.EIntr:
					continue
				}
			}
			return err
		}
		for _, part := range parts {
			_, _ = out.Write(part)
			_ = out.WriteByte('\n')
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
}
