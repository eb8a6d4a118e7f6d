package browser

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gauge tracks sessions in use. prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

// Pool caps how many sessions are open at once across every caller.
type Pool struct {
	driver Driver
	sem    *semaphore.Weighted
	inUse  Gauge
}

func NewPool(driver Driver, size int, inUse Gauge) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		driver: driver,
		sem:    semaphore.NewWeighted(int64(size)),
		inUse:  inUse,
	}
}

// Acquire blocks until a slot is free or ctx is done. Closing the returned
// session gives the slot back.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire browser session: %w", err)
	}

	sess, err := p.driver.NewSession(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	if p.inUse != nil {
		p.inUse.Inc()
	}

	return &pooledSession{Session: sess, pool: p}, nil
}

type pooledSession struct {
	Session
	pool *Pool
	once sync.Once
}

func (s *pooledSession) Close() error {
	var err error
	s.once.Do(func() {
		err = s.Session.Close()
		if s.pool.inUse != nil {
			s.pool.inUse.Dec()
		}
		s.pool.sem.Release(1)
	})
	return err
}
