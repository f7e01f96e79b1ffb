package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrConfirmTimeout = errors.New("confirmation timed out")

// Confirmations guarda los "¿estás seguro?" pendientes. Await bloquea hasta
// que un botón llame a Resolve o se cumpla el timeout; el timeout no cambia nada.
type Confirmations struct {
	mu      sync.Mutex
	pending map[string]chan bool
}

func NewConfirmations() *Confirmations {
	return &Confirmations{pending: map[string]chan bool{}}
}

// Open registra un prompt nuevo y devuelve su clave para el custom_id.
func (c *Confirmations) Open() string {
	key := uuid.NewString()
	c.mu.Lock()
	c.pending[key] = make(chan bool, 1)
	c.mu.Unlock()
	return key
}

// Resolve entrega la respuesta. false si la clave no existe o ya se respondió.
func (c *Confirmations) Resolve(key string, ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, found := c.pending[key]
	if !found {
		return false
	}
	select {
	case ch <- ok:
		return true
	default:
		return false
	}
}

func (c *Confirmations) Await(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	c.mu.Lock()
	ch, found := c.pending[key]
	c.mu.Unlock()
	if !found {
		return false, ErrConfirmTimeout
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	var waitErr error
	select {
	case ok := <-ch:
		c.forget(key)
		return ok, c.count(ok, nil)
	case <-t.C:
		waitErr = ErrConfirmTimeout
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	c.forget(key)
	// Resolve pudo ganar justo antes del forget
	select {
	case ok := <-ch:
		return ok, c.count(ok, nil)
	default:
	}
	return false, c.count(false, waitErr)
}

func (c *Confirmations) forget(key string) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
}

func (c *Confirmations) count(ok bool, err error) error {
	switch {
	case err != nil:
		confirmations.WithLabelValues("timeout").Inc()
	case ok:
		confirmations.WithLabelValues("confirmed").Inc()
	default:
		confirmations.WithLabelValues("cancelled").Inc()
	}
	return err
}

func (c *Confirmations) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
