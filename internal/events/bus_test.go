package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBus()
	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(Event{Kind: KindGenerated, File: "a.yaml", Unit: "Medic 7"})

	for _, ch := range []<-chan Event{first, second} {
		ev := <-ch
		assert.Equal(t, KindGenerated, ev.Kind)
		assert.Equal(t, "a.yaml", ev.File)
		assert.False(t, ev.At.IsZero())
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	for i := 0; i < 40; i++ {
		b.Publish(Event{Kind: KindFailed})
	}
	assert.Len(t, ch, 16)
}

func TestClose(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	b.Close()
	_, ok := <-ch
	require.False(t, ok)

	assert.NotPanics(t, func() { b.Publish(Event{Kind: KindGenerated}) })
	late := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	b.Close()
}
