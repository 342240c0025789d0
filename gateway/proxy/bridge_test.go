package proxy

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// tcpPair returns the two ends of a loopback TCP connection.
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	ch := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			ch <- c
		}
	}()

	dialed, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	accepted := <-ch
	t.Cleanup(func() {
		_ = dialed.Close()
		_ = accepted.Close()
	})
	return dialed, accepted
}

func TestBridgeRelaysBothDirections(t *testing.T) {
	client, gwClient := tcpPair(t)
	gwBackend, backend := tcpPair(t)

	done := make(chan struct{})
	go func() {
		bridge(gwClient, gwBackend, 5*time.Second)
		close(done)
	}()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	_ = backend.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(backend, buf); err != nil || !bytes.Equal(buf, []byte("ping")) {
		t.Fatalf("backend read %q, %v", buf, err)
	}

	if _, err := backend.Write([]byte("pong")); err != nil {
		t.Fatal(err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(client, buf); err != nil || !bytes.Equal(buf, []byte("pong")) {
		t.Fatalf("client read %q, %v", buf, err)
	}

	// Either side closing ends the relay and tears down both.
	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not finish after client close")
	}
	_ = backend.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := backend.Read(buf); err == nil {
		t.Error("backend side still open after teardown")
	}
}

func TestBridgeIdleTimeout(t *testing.T) {
	client, gwClient := tcpPair(t)
	_, gwBackend := tcpPair(t)

	done := make(chan struct{})
	go func() {
		bridge(gwClient, gwBackend, 200*time.Millisecond)
		close(done)
	}()

	// No bytes move in either direction: the watchdog must tear the
	// relay down on both ends shortly after the idle budget.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle relay was not torn down")
	}

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := client.Read(buf); err == nil {
		t.Error("client side still open after idle teardown")
	}
}

func TestBridgeActivityResetsIdleWindow(t *testing.T) {
	client, gwClient := tcpPair(t)
	gwBackend, backend := tcpPair(t)

	done := make(chan struct{})
	go func() {
		bridge(gwClient, gwBackend, 300*time.Millisecond)
		close(done)
	}()

	// Keep one byte moving inside every inactivity window; the relay
	// must outlive several multiples of the idle budget.
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := backend.Read(buf); err != nil {
				return
			}
		}
	}()

	start := time.Now()
	for i := 0; i < 10; i++ {
		time.Sleep(100 * time.Millisecond)
		if _, err := client.Write([]byte("x")); err != nil {
			t.Fatalf("relay died after %v while traffic was flowing", time.Since(start))
		}
	}

	// Stop the traffic; now the window is allowed to expire.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay was not torn down after traffic stopped")
	}
	if lived := time.Since(start); lived < time.Second {
		t.Errorf("relay lived only %v, expected teardown after traffic stopped", lived)
	}
}
