package pty

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// chunkDecoder turns raw PTY reads into UTF-8 text. Invalid bytes become
// U+FFFD; a multi-byte rune split across two reads is held back until the
// rest of it arrives.
type chunkDecoder struct {
	dec     transform.Transformer
	pending []byte
}

func newChunkDecoder() *chunkDecoder {
	return &chunkDecoder{dec: unicode.UTF8.NewDecoder()}
}

// Decode returns the text for p plus any bytes held back from the previous call.
func (d *chunkDecoder) Decode(p []byte) string {
	return d.transform(p, false)
}

// Flush decodes whatever is still held back, replacing it if incomplete.
func (d *chunkDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	return d.transform(nil, true)
}

func (d *chunkDecoder) transform(p []byte, atEOF bool) string {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
		d.pending = nil
	}
	if len(src) == 0 {
		return ""
	}

	// Each invalid byte expands to the three bytes of U+FFFD at most.
	dst := make([]byte, 3*len(src))
	nDst, nSrc, err := d.dec.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		return strings.ToValidUTF8(string(src), "�")
	}

	if nSrc < len(src) {
		d.pending = bytes.Clone(src[nSrc:])
	}
	return string(dst[:nDst])
}
