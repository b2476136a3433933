package board

import (
	"sync"
	"time"
)

// Banner holds the transient messages shown above the board.
type Banner struct {
	Success string
	Error   string
}

// slot is one auto-clearing message. A newer message restarts the timer.
type slot struct {
	text  string
	gen   uint64
	timer *time.Timer
}

type banners struct {
	mu       sync.Mutex
	ttl      time.Duration
	success  slot
	err      slot
	onChange func()
}

func newBanners(ttl time.Duration, onChange func()) *banners {
	return &banners{ttl: ttl, onChange: onChange}
}

func (b *banners) setSuccess(msg string) { b.set(&b.success, msg) }
func (b *banners) setError(msg string)   { b.set(&b.err, msg) }
func (b *banners) clearError()           { b.set(&b.err, "") }

func (b *banners) set(s *slot, msg string) {
	b.mu.Lock()
	s.gen++
	s.text = msg
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if msg != "" && b.ttl > 0 {
		gen := s.gen
		s.timer = time.AfterFunc(b.ttl, func() { b.expire(s, gen) })
	}
	b.mu.Unlock()
}

func (b *banners) expire(s *slot, gen uint64) {
	b.mu.Lock()
	if s.gen != gen {
		b.mu.Unlock()
		return
	}
	s.text = ""
	s.timer = nil
	b.mu.Unlock()

	if b.onChange != nil {
		b.onChange()
	}
}

func (b *banners) get() Banner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Banner{Success: b.success.text, Error: b.err.text}
}

func (b *banners) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range []*slot{&b.success, &b.err} {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
}
