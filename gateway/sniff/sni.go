package sniff

import "errors"

// Sentinel errors for SNI extraction. ErrNeedMoreData is not a terminal
// failure: the caller should read more bytes from the socket and retry.
var (
	ErrInvalidTLSRecord = errors.New("invalid TLS record")
	ErrNotClientHello   = errors.New("not a TLS ClientHello")
	ErrNoSNI            = errors.New("no SNI extension found")
	ErrInvalidSNI       = errors.New("invalid SNI hostname")
	ErrTooManyRecords   = errors.New("too many TLS records without a complete ClientHello")
	ErrHelloTooLarge    = errors.New("ClientHello exceeds reassembly limit")
	ErrNeedMoreData     = errors.New("incomplete ClientHello")
)

// TLS constants.
const (
	tlsRecordHeaderLen  = 5
	tlsContentHandshake = 0x16
	tlsHandshakeHello   = 0x01
	tlsExtensionSNI     = 0x0000
	sniHostNameType     = 0x00

	// maxRecordPayload is the TLS record plaintext limit (RFC 8446 §5.1).
	maxRecordPayload = 16384

	// maxRecordScan bounds how many records are walked before giving up,
	// so hostile input cannot keep the parser busy indefinitely.
	maxRecordScan = 8

	// maxHelloBytes caps the reassembled handshake message
	// (4-byte handshake header + body).
	maxHelloBytes = 16384
)

// ExtractSNI extracts the server_name routing key from the raw bytes read
// so far on a TLS connection. The ClientHello may be fragmented across
// multiple TLS records and may still be incomplete; handshake record
// payloads are reassembled until the full handshake message is available.
// Non-handshake records are skipped but count toward the scan limit.
//
// Returns the normalized routing key on success, ErrNeedMoreData while the
// message is incomplete but still within bounds, or a terminal sentinel
// error on any structural violation.
func ExtractSNI(data []byte) (string, error) {
	var hello []byte
	off := 0
	for records := 0; records < maxRecordScan; records++ {
		if len(data)-off < tlsRecordHeaderLen {
			return "", ErrNeedMoreData
		}
		ctype := data[off]
		rlen := int(data[off+3])<<8 | int(data[off+4])
		if rlen == 0 || rlen > maxRecordPayload {
			return "", ErrInvalidTLSRecord
		}
		avail := len(data) - off - tlsRecordHeaderLen

		if ctype != tlsContentHandshake {
			if avail < rlen {
				return "", ErrNeedMoreData
			}
			off += tlsRecordHeaderLen + rlen
			continue
		}

		// Accumulate whatever part of the record payload has arrived so
		// that the handshake-type check fires without waiting for the
		// record to complete.
		n := min(avail, rlen)
		if len(hello)+n > maxHelloBytes {
			return "", ErrHelloTooLarge
		}
		hello = append(hello, data[off+tlsRecordHeaderLen:off+tlsRecordHeaderLen+n]...)

		host, err := parseHello(hello)
		if err == nil {
			return host, nil
		}
		if !errors.Is(err, ErrNeedMoreData) {
			return "", err
		}
		if n < rlen {
			// Record itself is still partial; nothing follows it yet.
			return "", ErrNeedMoreData
		}
		off += tlsRecordHeaderLen + rlen
	}
	return "", ErrTooManyRecords
}

// parseHello inspects the reassembled handshake bytes. It fails fast on a
// non-ClientHello message type and reports ErrNeedMoreData until the
// declared handshake body has fully arrived.
func parseHello(hello []byte) (string, error) {
	if len(hello) >= 1 && hello[0] != tlsHandshakeHello {
		return "", ErrNotClientHello
	}
	if len(hello) < 4 {
		return "", ErrNeedMoreData
	}
	bodyLen := int(hello[1])<<16 | int(hello[2])<<8 | int(hello[3])
	if 4+bodyLen > maxHelloBytes {
		return "", ErrHelloTooLarge
	}
	if len(hello) < 4+bodyLen {
		return "", ErrNeedMoreData
	}
	return parseHelloBody(hello[4 : 4+bodyLen])
}

// parseHelloBody walks the fixed ClientHello fields to reach the
// extensions block. Every length field comes off the wire, so each
// advance goes through the bounds-checked cursor.
func parseHelloBody(body []byte) (string, error) {
	cur := newCursor(body)

	// protocol version + random
	if !cur.skip(2 + 32) {
		return "", ErrInvalidTLSRecord
	}

	sessionIDLen, ok := cur.readU8()
	if !ok || !cur.skip(int(sessionIDLen)) {
		return "", ErrInvalidTLSRecord
	}

	cipherSuitesLen, ok := cur.readU16()
	if !ok || !cur.skip(int(cipherSuitesLen)) {
		return "", ErrInvalidTLSRecord
	}

	compressionLen, ok := cur.readU8()
	if !ok || !cur.skip(int(compressionLen)) {
		return "", ErrInvalidTLSRecord
	}

	extensionsLen, ok := cur.readU16()
	if !ok {
		return "", ErrNoSNI
	}
	extensions, ok := cur.take(int(extensionsLen))
	if !ok {
		return "", ErrInvalidTLSRecord
	}
	return parseExtensions(extensions)
}

// parseExtensions scans the extensions region for server_name.
func parseExtensions(extensions []byte) (string, error) {
	cur := newCursor(extensions)
	for cur.remaining() >= 4 {
		extType, _ := cur.readU16()
		extLen, _ := cur.readU16()
		payload, ok := cur.take(int(extLen))
		if !ok {
			return "", ErrInvalidTLSRecord
		}
		if extType == tlsExtensionSNI {
			return parseServerName(payload)
		}
	}
	return "", ErrNoSNI
}

// parseServerName extracts the first host_name entry from the
// server_name extension payload and validates it as a routing key.
// Bracketed IPv6 forms do not exist in SNI.
func parseServerName(payload []byte) (string, error) {
	cur := newCursor(payload)
	listLen, ok := cur.readU16()
	if !ok {
		return "", ErrInvalidTLSRecord
	}
	list, ok := cur.take(int(listLen))
	if !ok {
		return "", ErrInvalidTLSRecord
	}

	lc := newCursor(list)
	for lc.remaining() >= 3 {
		nameType, _ := lc.readU8()
		nameLen, _ := lc.readU16()
		name, ok := lc.take(int(nameLen))
		if !ok {
			return "", ErrInvalidTLSRecord
		}
		if nameType == sniHostNameType {
			key, valid := normalizeHostname(string(name))
			if !valid {
				return "", ErrInvalidSNI
			}
			return key, nil
		}
	}
	return "", ErrNoSNI
}
