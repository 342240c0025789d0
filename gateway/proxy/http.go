package proxy

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"gosuda.org/gateway/gateway/sniff"
)

// Byte-exact error responses for the plaintext path. The TLS path never
// writes a response: the channel is encrypted and no well-formed error
// can be injected at this layer.
var (
	respTimeout         = []byte("HTTP/1.1 408 Request Timeout\r\nConnection: close\r\n\r\n")
	respHeadersTooLarge = []byte("HTTP/1.1 431 Request Header Fields Too Large\r\nConnection: close\r\n\r\n")
	respBadRequest      = []byte("HTTP/1.1 400 Bad Request\r\nConnection: close\r\n\r\n")
	respBadGateway      = []byte("HTTP/1.1 502 Bad Gateway\r\nConnection: close\r\n\r\n")
)

var errHeadersTooLarge = errors.New("request headers exceed limit")

var headerTerminator = []byte("\r\n\r\n")

// handleHTTP drives one plaintext connection: timed header read, Host
// extraction, backend resolution, timed connect, then relay.
func (g *Gateway) handleHTTP(client net.Conn, txid string) {
	defer client.Close()
	remote := client.RemoteAddr().String()

	_ = client.SetReadDeadline(time.Now().Add(g.HelloTimeout))
	pending, headerEnd, err := readHeaders(client, g.MaxHeaderBytes)
	_ = client.SetReadDeadline(time.Time{})
	if err != nil {
		if errors.Is(err, errHeadersTooLarge) {
			respond(client, respHeadersTooLarge)
		} else {
			respond(client, respTimeout)
		}
		log.Debug().Str("txid", txid).Str("remote", remote).Err(err).Msg("[http] header read failed")
		return
	}

	host, err := sniff.ExtractHost(pending[:headerEnd])
	if err != nil {
		respond(client, respBadRequest)
		log.Debug().Str("txid", txid).Str("remote", remote).Err(err).Msg("[http] host extraction failed")
		return
	}

	backend, ok := g.table.Lookup(host)
	if !ok {
		respond(client, respBadGateway)
		log.Debug().Str("txid", txid).Str("remote", remote).Str("host", host).Msg("[http] no backend for host")
		return
	}

	upstream, err := net.DialTimeout("tcp", backend, g.DialTimeout)
	if err != nil {
		respond(client, respBadGateway)
		log.Warn().Str("txid", txid).Str("remote", remote).Str("backend", backend).Err(err).Msg("[http] backend dial failed")
		return
	}

	// The header bytes plus anything read past the terminator (pipelined
	// body or follow-up requests) go to the backend exactly once, in order.
	if _, err := upstream.Write(pending); err != nil {
		_ = upstream.Close()
		log.Debug().Str("txid", txid).Str("remote", remote).Err(err).Msg("[http] backend write failed")
		return
	}

	bridge(client, upstream, g.IdleTimeout)
}

// readHeaders accumulates bytes from client until the \r\n\r\n header
// terminator appears, returning the full buffer and the index just past
// the terminator. Bytes after the terminator are kept for replay.
func readHeaders(client net.Conn, limit int) ([]byte, int, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 1024)
	for {
		n, err := client.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			// The terminator can straddle the chunk boundary, so rescan
			// three bytes of overlap along with the new data.
			from := max(len(buf)-n-3, 0)
			if i := bytes.Index(buf[from:], headerTerminator); i >= 0 {
				return buf, from + i + len(headerTerminator), nil
			}
			if len(buf) > limit {
				return nil, 0, errHeadersTooLarge
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, io.ErrUnexpectedEOF
			}
			return nil, 0, err
		}
	}
}

// respond writes a canned error response, best effort. A failed write
// just means the peer is gone; the connection closes either way.
func respond(client net.Conn, resp []byte) {
	_, _ = client.Write(resp)
}
