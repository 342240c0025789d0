package sniff

// cursor is a bounds-checked read position over a borrowed buffer.
// Every accessor either advances past the requested bytes or leaves the
// position untouched and reports ok == false; it never indexes past the
// end of the buffer. Multi-byte reads are big-endian (network order).
type cursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// take returns the next n bytes as a subslice of the underlying buffer.
func (c *cursor) take(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, true
}

func (c *cursor) skip(n int) bool {
	if n < 0 || c.remaining() < n {
		return false
	}
	c.off += n
	return true
}

func (c *cursor) readU8() (byte, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	b := c.buf[c.off]
	c.off++
	return b, true
}

func (c *cursor) readU16() (uint16, bool) {
	if c.remaining() < 2 {
		return 0, false
	}
	v := uint16(c.buf[c.off])<<8 | uint16(c.buf[c.off+1])
	c.off += 2
	return v, true
}

func (c *cursor) readU24() (uint32, bool) {
	if c.remaining() < 3 {
		return 0, false
	}
	v := uint32(c.buf[c.off])<<16 | uint32(c.buf[c.off+1])<<8 | uint32(c.buf[c.off+2])
	c.off += 3
	return v, true
}
