package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFansOutAndStampsTime(t *testing.T) {
	bus := NewBus()
	var a, b []Notification
	bus.Subscribe(func(n Notification) { a = append(a, n) })
	bus.Subscribe(func(n Notification) { b = append(b, n) })

	bus.Notify(Notification{Title: "Error", Message: "boom", Variant: VariantError})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "boom", a[0].Message)
	assert.False(t, a[0].CreatedAt.IsZero())
}

func TestLogSubscriberUsesVariantLevel(t *testing.T) {
	var buf bytes.Buffer
	sub := logSubscriber(zerolog.New(&buf))

	sub(Notification{Title: "Error", Message: "Record not accessible", Variant: VariantError})

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"message":"Record not accessible"`)
	assert.Contains(t, out, `"title":"Error"`)
}

func TestToastStackLimitsAndExpires(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	s := &toastStack{}
	for i, msg := range []string{"one", "two", "three", "four"} {
		s.push(Notification{Message: msg, CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	require.Len(t, s.items, maxToasts)
	assert.Equal(t, "two", s.items[0].Message)

	s.dismiss()
	require.Len(t, s.items, 2)
	assert.Equal(t, "three", s.items[1].Message)

	s.expire(base.Add(toastTTL + time.Second))
	require.Len(t, s.items, 1, "toasts expire from their own creation time")
	assert.Equal(t, "three", s.items[0].Message)

	s.expire(base.Add(toastTTL + 2*time.Second))
	assert.Empty(t, s.items)

	s.dismiss()
	assert.Empty(t, s.items)
}

func TestToastStackStampsMissingTime(t *testing.T) {
	s := &toastStack{}
	s.push(Notification{Message: "boom"})

	require.Len(t, s.items, 1)
	assert.False(t, s.items[0].CreatedAt.IsZero())
	assert.Len(t, s.view(), 1)
}
