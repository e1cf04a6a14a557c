package testbed

import (
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"

	zmqffi "github.com/semifor/zmq-ffi"
	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
)

func TestReqRep_Lockstep(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)
	rep, req := wirePair(t, ctx, consts.Rep, consts.Req, "inproc://rpc")

	if err := req.Send([]byte("ping"), 0); err != nil {
		t.Fatalf("request: %v", err)
	}
	// A second send before the reply arrives violates the alternation.
	wantErrno(t, req.Send([]byte("again"), 0), consts.EFSM)

	got, err := rep.Recv(0)
	if err != nil || string(got) != "ping" {
		t.Fatalf("rep.Recv = %q, %v", got, err)
	}
	if err := rep.Send([]byte("pong"), 0); err != nil {
		t.Fatalf("reply: %v", err)
	}
	// And so does replying twice to one request.
	wantErrno(t, rep.Send([]byte("extra"), 0), consts.EFSM)

	got, err = req.Recv(0)
	if err != nil || string(got) != "pong" {
		t.Fatalf("req.Recv = %q, %v", got, err)
	}
	// The cycle is complete; receiving again is out of turn.
	_, err = req.Recv(consts.FlagDontWait)
	wantErrno(t, err, consts.EFSM)
}

func TestRouterDealer_IdentityRouting(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)

	router, err := ctx.Socket(consts.Router)
	if err != nil {
		t.Fatalf("Socket(router): %v", err)
	}
	if err := router.Set(consts.OptRouterMandatory, backend.TypeInt, 1); err != nil {
		t.Fatalf("Set(router_mandatory): %v", err)
	}
	if err := router.Bind("inproc://jobs"); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	dealer, err := ctx.Socket(consts.Dealer)
	if err != nil {
		t.Fatalf("Socket(dealer): %v", err)
	}
	// The identity must be in place before the connection exists.
	if err := dealer.SetIdentity("worker-1"); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if err := dealer.Connect("inproc://jobs"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		dealer.Close()
		router.Close()
	})

	if err := dealer.Send([]byte("ready"), 0); err != nil {
		t.Fatalf("dealer.Send: %v", err)
	}
	parts, err := router.RecvMultipart(0)
	if err != nil {
		t.Fatalf("router.RecvMultipart: %v", err)
	}
	if len(parts) != 2 || string(parts[0]) != "worker-1" || string(parts[1]) != "ready" {
		t.Fatalf("router got %q, want [worker-1 ready]", parts)
	}

	if err := router.SendMultipart([][]byte{[]byte("worker-1"), []byte("work")}, 0); err != nil {
		t.Fatalf("router.SendMultipart: %v", err)
	}
	got, err := dealer.Recv(0)
	if err != nil || string(got) != "work" {
		t.Fatalf("dealer.Recv = %q, %v", got, err)
	}

	// With mandatory routing an unknown identity is an error, not a drop.
	err = router.SendMultipart([][]byte{[]byte("ghost"), []byte("lost")}, 0)
	wantErrno(t, err, consts.EHostUnreach)
}

func TestPushPull_RoundRobinDistribution(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)

	push, err := ctx.Socket(consts.Push)
	if err != nil {
		t.Fatalf("Socket(push): %v", err)
	}
	if err := push.Bind("inproc://fan"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	pulls := make([]zmqffi.Socket, 0, 2)
	for i := 0; i < 2; i++ {
		pull, err := ctx.Socket(consts.Pull)
		if err != nil {
			t.Fatalf("Socket(pull): %v", err)
		}
		if err := pull.Connect("inproc://fan"); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		pulls = append(pulls, pull)
	}
	t.Cleanup(func() {
		for _, p := range pulls {
			p.Close()
		}
		push.Close()
	})

	const total = 6
	for i := 0; i < total; i++ {
		if err := push.Send([]byte(fmt.Sprintf("m%d", i)), 0); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	// Load balancing alternates over connected peers, so an even split.
	for i, p := range pulls {
		n := 0
		for {
			if _, err := p.Recv(consts.FlagDontWait); err != nil {
				break
			}
			n++
		}
		if n != total/2 {
			t.Fatalf("pull %d drained %d messages, want %d", i, n, total/2)
		}
	}
}

func TestPull_FairQueuesConcurrentPushers(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)

	pull, err := ctx.Socket(consts.Pull)
	if err != nil {
		t.Fatalf("Socket(pull): %v", err)
	}
	if err := pull.Bind("inproc://funnel"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	t.Cleanup(func() { pull.Close() })

	// One goroutine per pusher; sockets are not safe to share.
	const perSender = 3
	var wg conc.WaitGroup
	for _, name := range []string{"a", "b"} {
		push, err := ctx.Socket(consts.Push)
		if err != nil {
			t.Fatalf("Socket(push %s): %v", name, err)
		}
		if err := push.Connect("inproc://funnel"); err != nil {
			t.Fatalf("Connect(%s): %v", name, err)
		}
		t.Cleanup(func() { push.Close() })
		wg.Go(func() {
			for i := 0; i < perSender; i++ {
				if err := push.Send([]byte(fmt.Sprintf("%s%d", name, i)), 0); err != nil {
					t.Errorf("Send %s%d: %v", name, i, err)
					return
				}
			}
		})
	}
	wg.Wait()

	// Every message arrives, and per-sender order survives fair queueing.
	seen := make(map[string]int)
	var orderA, orderB []string
	for i := 0; i < 2*perSender; i++ {
		msg, err := pull.Recv(0)
		if err != nil {
			t.Fatalf("Recv %d: %v", i, err)
		}
		m := string(msg)
		seen[m]++
		switch m[0] {
		case 'a':
			orderA = append(orderA, m)
		case 'b':
			orderB = append(orderB, m)
		}
	}
	for _, name := range []string{"a", "b"} {
		for i := 0; i < perSender; i++ {
			if m := fmt.Sprintf("%s%d", name, i); seen[m] != 1 {
				t.Errorf("message %s delivered %d times", m, seen[m])
			}
		}
	}
	for i, m := range orderA {
		if m != fmt.Sprintf("a%d", i) {
			t.Fatalf("sender a order %v", orderA)
		}
	}
	for i, m := range orderB {
		if m != fmt.Sprintf("b%d", i) {
			t.Fatalf("sender b order %v", orderB)
		}
	}
	_, err = pull.Recv(consts.FlagDontWait)
	wantErrno(t, err, consts.EAgain)
}

func TestPubSub_FullSubscriberDropsNewest(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)

	pub, err := ctx.Socket(consts.Pub)
	if err != nil {
		t.Fatalf("Socket(pub): %v", err)
	}
	if err := pub.Set(consts.OptSndHWM, backend.TypeInt, 1); err != nil {
		t.Fatalf("Set(sndhwm): %v", err)
	}
	if err := pub.Bind("inproc://events"); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	sub, err := ctx.Socket(consts.Sub)
	if err != nil {
		t.Fatalf("Socket(sub): %v", err)
	}
	if err := sub.Set(consts.OptRcvHWM, backend.TypeInt, 1); err != nil {
		t.Fatalf("Set(rcvhwm): %v", err)
	}
	if err := sub.Subscribe(""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Connect("inproc://events"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		sub.Close()
		pub.Close()
	})

	// Pipe capacity is sndhwm+rcvhwm = 2. The excess is dropped at the
	// publisher without blocking or erroring.
	for i := 0; i < 5; i++ {
		if err := pub.Send([]byte(fmt.Sprintf("e%d", i)), 0); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	var got []string
	for {
		msg, err := sub.Recv(consts.FlagDontWait)
		if err != nil {
			wantErrno(t, err, consts.EAgain)
			break
		}
		got = append(got, string(msg))
	}
	if len(got) != 2 || got[0] != "e0" || got[1] != "e1" {
		t.Fatalf("subscriber drained %q, want the first two events", got)
	}
}
