package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/wonny/holdings/internal/contracts"
)

// Slot hands out read tickets; beginning a new read supersedes every
// earlier ticket so a stale file can never be imported over a newer one
type Slot struct {
	mu  sync.Mutex
	seq uint64
}

// Ticket is one read attempt
type Ticket struct {
	slot *Slot
	seq  uint64
}

// Begin starts a new read, invalidating the previous one
func (s *Slot) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Ticket{slot: s, seq: s.seq}
}

// Current reports whether no newer read has begun
func (t Ticket) Current() bool {
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	return t.seq == t.slot.seq
}

// Read drains r. It fails with contracts.ErrSuperseded once a newer ticket
// exists and wraps contracts.ErrUnreadable on I/O failure.
func (t Ticket) Read(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(&ticketReader{ctx: ctx, t: t, r: r})
	if err != nil {
		if errors.Is(err, contracts.ErrSuperseded) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", contracts.ErrUnreadable, err)
	}
	if !t.Current() {
		return nil, contracts.ErrSuperseded
	}
	return data, nil
}

// ticketReader stops reading as soon as the ticket is stale or ctx is done
type ticketReader struct {
	ctx context.Context
	t   Ticket
	r   io.Reader
}

func (tr *ticketReader) Read(p []byte) (int, error) {
	if err := tr.ctx.Err(); err != nil {
		return 0, err
	}
	if !tr.t.Current() {
		return 0, contracts.ErrSuperseded
	}
	return tr.r.Read(p)
}
