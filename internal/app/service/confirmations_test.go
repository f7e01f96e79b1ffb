package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationsResolve(t *testing.T) {
	c := NewConfirmations()
	key := c.Open()
	assert.Equal(t, 1, c.Pending())

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.Resolve(key, true)
	}()
	ok, err := c.Await(context.Background(), key, time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Pending())
}

func TestConfirmationsCancel(t *testing.T) {
	c := NewConfirmations()
	key := c.Open()
	assert.True(t, c.Resolve(key, false))
	assert.False(t, c.Resolve(key, true), "only the first click counts")

	ok, err := c.Await(context.Background(), key, time.Second)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Pending())
}

func TestConfirmationsTimeout(t *testing.T) {
	c := NewConfirmations()
	key := c.Open()

	ok, err := c.Await(context.Background(), key, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrConfirmTimeout)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Pending())
	assert.False(t, c.Resolve(key, true), "late clicks are ignored")
}

func TestConfirmationsContextCancel(t *testing.T) {
	c := NewConfirmations()
	key := c.Open()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Await(ctx, key, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
