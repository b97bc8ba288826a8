package transfer

import (
	"context"
	"io"

	"github.com/tangramvision/datasetxfer/chunkreader"
)

// partProducer runs the Chunk Reader on a background goroutine and feeds
// chunks to the worker pool through a buffered channel, suspending when the
// channel is full (§5 suspension points). Adapted from the teacher's
// producer/consumer split between a reader goroutine and a bounded worker
// pool, simplified here because a chunk is already an in-memory byte buffer
// rather than a spooled temp file (spec §4.A yields a raw byte buffer).
type partProducer struct {
	reader *chunkreader.Reader
	chunks chan *chunkreader.Chunk
	err    error
}

func newPartProducer(reader *chunkreader.Reader, backlog int) *partProducer {
	return &partProducer{
		reader: reader,
		chunks: make(chan *chunkreader.Chunk, backlog),
	}
}

// produce must run in its own goroutine. It closes the chunks channel when
// the source is exhausted, an error occurs, or ctx is cancelled.
func (p *partProducer) produce(ctx context.Context) {
	defer close(p.chunks)
	for {
		chunk, err := p.reader.Next()
		if err != nil {
			if err != io.EOF {
				p.err = err
			}
			return
		}
		select {
		case p.chunks <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// drainUnread must be called by the consumer after it stops reading from
// chunks, so the producer goroutine is never left blocked trying to send.
func (p *partProducer) drainUnread() {
	for range p.chunks {
	}
}
