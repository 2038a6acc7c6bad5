// Package rx provides the streaming substrate of the receiver: a producer
// goroutine reads sample blocks from a source and hands them through a
// bounded queue to a consumer loop that owns the demodulator state. A full
// queue blocks the producer, so a slow decoder stalls sample production
// instead of dropping data or growing memory.
package rx

import (
	"context"
	"errors"
	"io"
	"log"
	"time"
)

const (
	defaultQueueSize  = 8
	defaultRetryDelay = 500 * time.Millisecond

	maxConsecutiveReadErrors = 5
)

// Source produces ordered blocks of complex baseband samples. ReadBlock
// blocks until a block is available and returns io.EOF when the stream
// ends. Ownership of the returned block transfers to the caller.
type Source interface {
	ReadBlock() ([]complex64, error)
}

// Demodulator is one decode path. Demodulate is called with one block at a
// time, always from the same goroutine; errors are scoped to the given
// block and do not end the stream.
type Demodulator interface {
	Demodulate(block []complex64) error
}

// Receiver connects a Source to a Demodulator.
type Receiver struct {
	source Source
	demod  Demodulator

	queueSize  int
	retryDelay time.Duration
}

func NewReceiver(source Source, demod Demodulator) *Receiver {
	return &Receiver{
		source:     source,
		demod:      demod,
		queueSize:  defaultQueueSize,
		retryDelay: defaultRetryDelay,
	}
}

// SetQueueSize sets the capacity of the block queue. It must be called
// before Run.
func (r *Receiver) SetQueueSize(queueSize int) {
	if queueSize < 1 {
		queueSize = 1
	}
	r.queueSize = queueSize
}

// SetRetryDelay sets the delay before a failed source read is retried. It
// must be called before Run.
func (r *Receiver) SetRetryDelay(delay time.Duration) {
	r.retryDelay = delay
}

// Run streams blocks from the source into the demodulator until the
// source ends or the context is canceled. Demodulation errors are logged
// and the stream continues; they never corrupt the demodulator's
// persistent state.
func (r *Receiver) Run(ctx context.Context) error {
	blocks := make(chan []complex64, r.queueSize)
	go r.produce(ctx, blocks)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			err := r.demod.Demodulate(block)
			if err != nil {
				log.Printf("cannot demodulate block: %v", err)
			}
		}
	}
}

// produce reads blocks from the source and sends them into the queue. The
// send blocks when the queue is full, applying backpressure to the source.
// Transient read errors are retried after a short delay; after too many
// consecutive failures the source is considered lost and the stream ends.
func (r *Receiver) produce(ctx context.Context, blocks chan<- []complex64) {
	defer close(blocks)

	readErrors := 0
	for {
		if ctx.Err() != nil {
			return
		}

		block, err := r.source.ReadBlock()
		switch {
		case errors.Is(err, io.EOF):
			return
		case err != nil:
			readErrors++
			if readErrors >= maxConsecutiveReadErrors {
				log.Printf("sample source lost: %v", err)
				return
			}
			log.Printf("cannot read block, retrying: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.retryDelay):
			}
			continue
		}
		readErrors = 0

		if len(block) == 0 {
			continue
		}

		select {
		case blocks <- block:
		case <-ctx.Done():
			return
		}
	}
}
