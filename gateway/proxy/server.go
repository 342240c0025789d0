// Package proxy implements the per-connection sniff-and-dispatch
// pipeline: accept, extract a routing key from the first bytes on the
// wire, resolve a backend, and relay bytes in both directions.
package proxy

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gosuda.org/gateway/gateway/route"
)

// Defaults for the per-stage bounds. Every wait on the network is
// time-boxed so a dead or hostile peer cannot hold resources open.
const (
	DefaultHelloTimeout   = 5 * time.Second
	DefaultDialTimeout    = 3 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultMaxHeaderBytes = 32 * 1024
)

// maxTLSPendingBytes caps the raw bytes buffered on the TLS path while
// hunting for a complete ClientHello. The SNI parser bounds its own
// reassembly; this additionally bounds skipped non-handshake records.
const maxTLSPendingBytes = 64 * 1024

// Gateway routes inbound TCP connections to backends by Host header
// (plaintext port) or SNI (TLS passthrough port). It never terminates
// TLS and never interprets application payload beyond the routing key.
type Gateway struct {
	HelloTimeout   time.Duration // header / ClientHello read budget
	DialTimeout    time.Duration // backend connect budget
	IdleTimeout    time.Duration // relay inactivity budget
	MaxHeaderBytes int           // HTTP header accumulation cap

	table    *route.Table
	httpAddr string
	tlsAddr  string

	httpLn net.Listener
	tlsLn  net.Listener

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Gateway serving the given route table on httpAddr
// (Host header inspection) and tlsAddr (SNI passthrough inspection).
func New(table *route.Table, httpAddr, tlsAddr string) *Gateway {
	return &Gateway{
		HelloTimeout:   DefaultHelloTimeout,
		DialTimeout:    DefaultDialTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		MaxHeaderBytes: DefaultMaxHeaderBytes,
		table:          table,
		httpAddr:       httpAddr,
		tlsAddr:        tlsAddr,
		stopCh:         make(chan struct{}),
	}
}

// Start binds both listeners and launches the accept loops. Both binds
// must succeed or nothing is served.
func (g *Gateway) Start() error {
	var lc net.ListenConfig

	httpLn, err := lc.Listen(context.Background(), "tcp", g.httpAddr)
	if err != nil {
		return err
	}
	tlsLn, err := lc.Listen(context.Background(), "tcp", g.tlsAddr)
	if err != nil {
		_ = httpLn.Close()
		return err
	}
	g.httpLn = httpLn
	g.tlsLn = tlsLn

	log.Info().
		Str("http", httpLn.Addr().String()).
		Str("tls", tlsLn.Addr().String()).
		Int("routes", g.table.Len()).
		Msg("[gateway] listening")

	go g.acceptLoop(httpLn, "http", g.handleHTTP)
	go g.acceptLoop(tlsLn, "tls", g.handleTLS)
	return nil
}

// HTTPAddr returns the bound plaintext listener address.
func (g *Gateway) HTTPAddr() net.Addr { return g.httpLn.Addr() }

// TLSAddr returns the bound passthrough listener address.
func (g *Gateway) TLSAddr() net.Addr { return g.tlsLn.Addr() }

// Stop closes the listeners and waits for in-flight connections to drain.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
	if g.httpLn != nil {
		_ = g.httpLn.Close()
	}
	if g.tlsLn != nil {
		_ = g.tlsLn.Close()
	}
	g.wg.Wait()
	log.Info().Msg("[gateway] stopped")
}

// acceptLoop accepts connections and spawns one handler goroutine per
// connection. A slow or stalled connection never blocks acceptance, and
// accept errors never stop the loop.
func (g *Gateway) acceptLoop(ln net.Listener, tag string, handle func(net.Conn, string)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-g.stopCh:
				return
			default:
				log.Error().Err(err).Str("listener", tag).Msg("[gateway] accept error")
				continue
			}
		}

		txid := uuid.NewString()
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			handle(conn, txid)
		}()
	}
}
