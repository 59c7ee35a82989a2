package notify

import (
	"sync"
	"testing"

	"marketplace/pkg/model"

	"github.com/stretchr/testify/assert"
)

func TestInbox_DrainEmpties(t *testing.T) {
	in := NewInbox(0)
	in.Error(model.DomainFlight, "failed to load flights")
	in.Info(model.DomainLodging, "reservation cancelled")

	got := in.Drain()
	if assert.Len(t, got, 2) {
		assert.Equal(t, LevelError, got[0].Level)
		assert.Equal(t, model.DomainFlight, got[0].Domain)
		assert.Equal(t, LevelInfo, got[1].Level)
	}
	assert.Empty(t, in.Drain())
	assert.NotNil(t, in.Drain())
}

func TestInbox_DropsOldestWhenFull(t *testing.T) {
	in := NewInbox(2)
	in.Info("", "one")
	in.Info("", "two")
	in.Info("", "three")

	got := in.Drain()
	if assert.Len(t, got, 2) {
		assert.Equal(t, "two", got[0].Message)
		assert.Equal(t, "three", got[1].Message)
	}
}

func TestInbox_ConcurrentPush(t *testing.T) {
	in := NewInbox(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.Error(model.DomainTicket, "boom")
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, in.Len())
}
