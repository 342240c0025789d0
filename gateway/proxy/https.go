package proxy

import (
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"gosuda.org/gateway/gateway/sniff"
)

// handleTLS drives one passthrough connection: accumulate bytes under a
// read deadline until the SNI parser produces a routing key, resolve,
// connect, replay the buffered bytes, then relay. Every failure closes
// the client silently; a TLS peer learns nothing about routing state
// beyond a reset.
func (g *Gateway) handleTLS(client net.Conn, txid string) {
	defer client.Close()
	remote := client.RemoteAddr().String()

	_ = client.SetReadDeadline(time.Now().Add(g.HelloTimeout))
	var host string
	pending := make([]byte, 0, 2048)
	chunk := make([]byte, 4096)
	for host == "" {
		n, err := client.Read(chunk)
		if n > 0 {
			pending = append(pending, chunk[:n]...)
			if len(pending) > maxTLSPendingBytes {
				log.Debug().Str("txid", txid).Str("remote", remote).Int("bytes", len(pending)).Msg("[tls] pending buffer exceeds limit")
				return
			}
			h, perr := sniff.ExtractSNI(pending)
			if perr == nil {
				host = h
				break
			}
			if !errors.Is(perr, sniff.ErrNeedMoreData) {
				log.Debug().Str("txid", txid).Str("remote", remote).Err(perr).Msg("[tls] sni extraction failed")
				return
			}
		}
		if err != nil {
			log.Debug().Str("txid", txid).Str("remote", remote).Err(err).Msg("[tls] client hello read failed")
			return
		}
	}
	_ = client.SetReadDeadline(time.Time{})

	backend, ok := g.table.Lookup(host)
	if !ok {
		log.Debug().Str("txid", txid).Str("remote", remote).Str("sni", host).Msg("[tls] no backend for sni")
		return
	}

	upstream, err := net.DialTimeout("tcp", backend, g.DialTimeout)
	if err != nil {
		log.Warn().Str("txid", txid).Str("remote", remote).Str("backend", backend).Err(err).Msg("[tls] backend dial failed")
		return
	}

	// Everything consumed while hunting for the SNI, including any bytes
	// the client pipelined behind the hello, is replayed verbatim.
	if _, err := upstream.Write(pending); err != nil {
		_ = upstream.Close()
		log.Debug().Str("txid", txid).Str("remote", remote).Err(err).Msg("[tls] backend write failed")
		return
	}

	bridge(client, upstream, g.IdleTimeout)
}
