// Package chunkreader produces a lazy, ordered, finite sequence of numbered
// byte chunks from a file, the leaf dependency of the transfer engine.
package chunkreader

import (
	"fmt"
	"io"
)

// Chunk is one in-flight unit of a multipart upload: a buffer of raw bytes
// and its 1-based part number. Chunks are ephemeral and never persisted.
type Chunk struct {
	PartNumber int32
	Data       []byte
}

// Reader yields chunks of exactly chunkSize bytes, except the last chunk
// which holds whatever remains. It never returns a short chunk for any
// reason other than having reached the end of the stream, since a short
// read would otherwise be indistinguishable from end-of-stream.
type Reader struct {
	r          io.Reader
	chunkSize  int64
	remaining  int64
	nextPart   int32
	terminated bool
}

// New wraps r, whose total length is exactly size, into a Reader that
// yields ceil(size/chunkSize) chunks.
func New(r io.Reader, size, chunkSize int64) *Reader {
	return &Reader{
		r:         r,
		chunkSize: chunkSize,
		remaining: size,
		nextPart:  1,
	}
}

// Next returns the next chunk, or io.EOF once the stream is exhausted. Once
// a read error terminates the sequence, every subsequent call also returns
// io.EOF: the error itself is only ever returned once, from the call that
// encountered it.
func (cr *Reader) Next() (*Chunk, error) {
	if cr.terminated || cr.remaining <= 0 {
		return nil, io.EOF
	}

	size := cr.chunkSize
	if size > cr.remaining {
		size = cr.remaining
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(cr.r, buf); err != nil {
		cr.terminated = true
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("chunkreader: short read, expected %d bytes: %w", size, err)
		}
		return nil, err
	}

	chunk := &Chunk{PartNumber: cr.nextPart, Data: buf}
	cr.nextPart++
	cr.remaining -= size
	if cr.remaining <= 0 {
		cr.terminated = true
	}
	return chunk, nil
}

// TotalParts returns ceil(size/chunkSize), the number of chunks a Reader
// constructed with those parameters will yield.
func TotalParts(size, chunkSize int64) int32 {
	if size <= 0 {
		return 0
	}
	n := size / chunkSize
	if size%chunkSize != 0 {
		n++
	}
	return int32(n)
}
