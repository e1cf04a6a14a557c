package testbed

import (
	"testing"
	"time"

	"github.com/semifor/zmq-ffi/consts"
)

func TestProxy_RelaysAndCaptures(t *testing.T) {
	ctx := newContext(t, 4, 3, 5)

	front, feeder := wirePair(t, ctx, consts.Pull, consts.Push, "inproc://relay-front")
	back, sink := wirePair(t, ctx, consts.Push, consts.Pull, "inproc://relay-back")
	tap, watcher := wirePair(t, ctx, consts.Pub, consts.Sub, "inproc://relay-tap")
	if err := watcher.Subscribe(""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- ctx.Proxy(front, back, tap)
	}()

	if err := feeder.Send([]byte("job-1"), 0); err != nil {
		t.Fatalf("feeder.Send: %v", err)
	}
	got, err := sink.Recv(0)
	if err != nil || string(got) != "job-1" {
		t.Fatalf("sink got %q, %v", got, err)
	}
	got, err = watcher.Recv(0)
	if err != nil || string(got) != "job-1" {
		t.Fatalf("capture got %q, %v", got, err)
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	select {
	case err := <-done:
		wantErrno(t, err, consts.ETerm)
	case <-time.After(2 * time.Second):
		t.Fatal("proxy did not stop on destroy")
	}
}

func TestDevice_StreamerOnLegacyEngine(t *testing.T) {
	ctx := newContext(t, 2, 1, 11)

	front, producer := wirePair(t, ctx, consts.Pull, consts.Push, "inproc://dev-front")
	back, consumer := wirePair(t, ctx, consts.Push, consts.Pull, "inproc://dev-back")

	done := make(chan error, 1)
	go func() {
		done <- ctx.Device(consts.Streamer, front, back)
	}()

	if err := producer.Send([]byte("task"), 0); err != nil {
		t.Fatalf("producer.Send: %v", err)
	}
	got, err := consumer.Recv(0)
	if err != nil || string(got) != "task" {
		t.Fatalf("consumer got %q, %v", got, err)
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	select {
	case err := <-done:
		wantErrno(t, err, consts.ETerm)
	case <-time.After(2 * time.Second):
		t.Fatal("device did not stop on destroy")
	}
}

func TestProxy_LegacyRunsAsDevice(t *testing.T) {
	ctx := newContext(t, 2, 1, 11)

	front, feeder := wirePair(t, ctx, consts.Pull, consts.Push, "inproc://legacy-front")
	back, sink := wirePair(t, ctx, consts.Push, consts.Pull, "inproc://legacy-back")
	tap, watcher := wirePair(t, ctx, consts.Pub, consts.Sub, "inproc://legacy-tap")
	if err := watcher.Subscribe(""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- ctx.Proxy(front, back, tap)
	}()

	if err := feeder.Send([]byte("x"), 0); err != nil {
		t.Fatalf("feeder.Send: %v", err)
	}
	got, err := sink.Recv(0)
	if err != nil || string(got) != "x" {
		t.Fatalf("sink got %q, %v", got, err)
	}
	// The 2.x line has no capture leg; the tap stays silent.
	_, err = watcher.Recv(consts.FlagDontWait)
	wantErrno(t, err, consts.EAgain)

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	select {
	case err := <-done:
		wantErrno(t, err, consts.ETerm)
	case <-time.After(2 * time.Second):
		t.Fatal("proxy did not stop on destroy")
	}
}
