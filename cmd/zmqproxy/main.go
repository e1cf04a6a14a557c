package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	zmqffi "github.com/semifor/zmq-ffi"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/ffi"
	"github.com/semifor/zmq-ffi/lifecycle"
	"github.com/semifor/zmq-ffi/memengine"
)

func main() {
	var (
		front   = flag.String("front", "", "Frontend endpoint to bind")
		back    = flag.String("back", "", "Backend endpoint to bind")
		capture = flag.String("capture", "", "Optional capture endpoint; relayed traffic is published there")
		pattern = flag.String("pattern", "queue", "Proxy shape: queue (router/dealer), forwarder (xsub/xpub), streamer (pull/push)")
		soname  = flag.String("soname", "", "Engine library name or path")
		mem     = flag.Bool("mem", false, "Run on the in-memory engine (inproc endpoints only)")
		verbose = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *front == "" || *back == "" {
		fmt.Fprintln(os.Stderr, "Usage: zmqproxy -front <endpoint> -back <endpoint> [-capture endpoint] [-pattern queue|forwarder|streamer]")
		os.Exit(1)
	}

	if err := run(*pattern, *front, *back, *capture, *soname, *mem, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(pattern, front, back, capture, soname string, mem, verbose bool) error {
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

	frontTyp, backTyp, err := patternTypes(pattern)
	if err != nil {
		return err
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

	f, err := ctx.Socket(frontTyp)
	if err != nil {
		return err
	}
	if err := f.Bind(front); err != nil {
		return err
	}
	b, err := ctx.Socket(backTyp)
	if err != nil {
		return err
	}
	if err := b.Bind(back); err != nil {
		return err
	}

	var capSock zmqffi.Socket
	if capture != "" {
		capSock, err = ctx.Socket(consts.Pub)
		if err != nil {
			return err
		}
		if err := capSock.Bind(capture); err != nil {
			return err
		}
	}

	fmt.Printf("Engine %s, backend %s\n", ctx.Version(), ctx.Backend())
	fmt.Printf("Proxying %s (%s) <-> %s (%s)\n", front, frontTyp, back, backTyp)
	if capture != "" {
		fmt.Printf("Capturing to %s\n", capture)
	}

	// The relay blocks inside the engine until the context is destroyed,
	// which surfaces as ETERM.
	relayErr := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		relayErr <- ctx.Proxy(f, b, capSock)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		fmt.Printf("\n%s: shutting down\n", s)
		if err := ctx.Destroy(); err != nil {
			// Without a successful destroy the relay may never unblock;
			// don't wait on it.
			return err
		}
	case err := <-relayErr:
		// The relay ended on its own; nothing left to interrupt.
		wg.Wait()
		return err
	}

	wg.Wait()
	if err := <-relayErr; err != nil {
		if code, ok := errors.ErrnoOf(err); !ok || code != consts.ETerm {
			return err
		}
	}
	return nil
}

func patternTypes(pattern string) (front, back consts.SocketType, err error) {
	switch pattern {
	case "queue":
		return consts.Router, consts.Dealer, nil
	case "forwarder":
		return consts.XSub, consts.XPub, nil
	case "streamer":
		return consts.Pull, consts.Push, nil
	}
	return 0, 0, fmt.Errorf("unknown pattern %q (want queue, forwarder or streamer)", pattern)
}
