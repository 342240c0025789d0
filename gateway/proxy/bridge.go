package proxy

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// bufferPool provides reusable 64KB buffers for the relay loops to reduce
// per-connection allocations and GC pressure under high concurrency.
// Using *[]byte to avoid interface boxing allocation in sync.Pool.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64*1024)
		return &b
	},
}

// bridge relays bytes bidirectionally between client and backend until
// either side closes, errors, or no byte moves in either direction for
// the idle duration. Both connections are closed before bridge returns.
func bridge(client, backend net.Conn, idle time.Duration) {
	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())

	done := make(chan struct{})
	go watchIdle(client, backend, idle, &lastActivity, done)

	errCh := make(chan error, 2)
	go pump(backend, client, &lastActivity, errCh)
	go pump(client, backend, &lastActivity, errCh)

	// First direction finishing tears both sides down, which unblocks the
	// other pump; then wait for it so buffers are returned before exit.
	<-errCh
	_ = client.Close()
	_ = backend.Close()
	<-errCh
	close(done)
}

// pump copies src to dst, stamping the shared activity clock on every
// read so the idle watchdog sees movement in either direction.
func pump(dst, src net.Conn, lastActivity *atomic.Int64, errCh chan<- error) {
	buf := *bufferPool.Get().(*[]byte)
	defer bufferPool.Put(&buf)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			lastActivity.Store(time.Now().UnixNano())
			if _, werr := dst.Write(buf[:n]); werr != nil {
				errCh <- werr
				return
			}
		}
		if rerr != nil {
			errCh <- rerr
			return
		}
	}
}

// watchIdle closes both connections once the activity clock goes stale.
// The inactivity window restarts whenever a byte moves; a fired watchdog
// is a normal terminal outcome for the relay, not an error.
func watchIdle(a, b net.Conn, idle time.Duration, lastActivity *atomic.Int64, done <-chan struct{}) {
	interval := idle / 4
	if interval < 25*time.Millisecond {
		interval = 25 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if time.Since(time.Unix(0, lastActivity.Load())) >= idle {
				_ = a.Close()
				_ = b.Close()
				return
			}
		}
	}
}
