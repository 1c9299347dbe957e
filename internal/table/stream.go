package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	streamBatchSize     = 512
	streamFlushInterval = 50 * time.Millisecond
)

// Batch is a group of rows read from a stream, or the error that ended it.
type Batch struct {
	Rows [][]string
	Err  error
}

// StreamDelimited reads separator-delimited records from r in the
// background. The header, when requested, is read before returning; the
// returned table starts with no data rows. Rows are delivered in batches of
// up to streamBatchSize, or whatever arrived within streamFlushInterval,
// until EOF, a parse error, or ctx is done. The channel is then closed.
//
// The caller appends each batch to the table itself, so that the table is
// only mutated from one goroutine.
func StreamDelimited(ctx context.Context, r io.Reader, sep rune, header bool) (*Table, <-chan Batch, error) {
	cr := newDelimitedReader(r, sep)

	var head []string
	if header {
		rec, err := cr.Read()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("failed to read header: %w", err)
		}
		head = rec
	}

	records := make(chan []string, streamBatchSize)
	readErr := make(chan error, 1)
	go func() {
		defer close(records)
		for {
			rec, err := cr.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	out := make(chan Batch)
	go func() {
		defer close(out)

		send := func(b Batch) bool {
			select {
			case out <- b:
				return true
			case <-ctx.Done():
				return false
			}
		}

		ticker := time.NewTicker(streamFlushInterval)
		defer ticker.Stop()

		var pending [][]string
		for {
			select {
			case rec, ok := <-records:
				if !ok {
					if len(pending) > 0 && !send(Batch{Rows: pending}) {
						return
					}
					select {
					case err := <-readErr:
						send(Batch{Err: fmt.Errorf("failed to parse delimited stream: %w", err)})
					default:
					}
					return
				}
				pending = append(pending, rec)
				if len(pending) >= streamBatchSize {
					if !send(Batch{Rows: pending}) {
						return
					}
					pending = nil
				}

			case <-ticker.C:
				if len(pending) > 0 {
					if !send(Batch{Rows: pending}) {
						return
					}
					pending = nil
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return New(head, nil), out, nil
}
