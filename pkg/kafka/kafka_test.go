package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	if len(r.queue) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("b-1").
		WithJSON(map[string]string{"op": "accept"}).
		WithEventType("booking.accept").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "b-1", msg.Key)
	assert.JSONEq(t, `{"op":"accept"}`, string(msg.Value))
	assert.Equal(t, "booking.accept", msg.EventType())
	assert.NotEmpty(t, msg.EventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	_, err = NewMessage().WithKey("k").WithJSON(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.RetryCount())
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.RetryCount())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: Connection Refused")))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(NewPermanentError("bad payload", nil)))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(fmt.Errorf("wrapped: %w", NewTransientError("db down", nil))))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("something odd")))
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))

	assert.False(t, ShouldRetry(context.DeadlineExceeded, 3, 3))
	assert.True(t, ShouldRetry(context.DeadlineExceeded, 2, 3))
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, "events", nil)

	var order []string
	for _, name := range []string{"outer", "inner"} {
		name := name
		p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	msg, err := NewMessage().WithKey("b-1").WithJSON("x").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"outer", "inner"}, order)
	require.Len(t, w.written, 1)
	assert.Equal(t, "b-1", string(w.written[0].Key))
}

func TestProducer_RejectsInvalidAndClosed(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, "events", nil)

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	brokerErr := errors.New("leader not available")
	w := &fakeWriter{err: brokerErr}
	dlq := &fakeWriter{}
	p := NewProducerWithWriter(w, dlq, "events", nil)

	err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x"), Headers: map[string]string{}})
	assert.ErrorIs(t, err, brokerErr)

	require.Len(t, dlq.written, 1)
	headers := fromKafkaMessage(dlq.written[0]).Headers
	assert.Equal(t, "events", headers[HeaderOriginalTopic])
	assert.Equal(t, brokerErr.Error(), headers[HeaderDLQError])
}

func TestConsumer_RetriesTransientThenCommits(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("a"), Value: []byte("1"), Offset: 7})
	dlq := &fakeWriter{}

	var calls int
	c, err := NewConsumerWithReader(reader, dlq, "intake", "group", func(_ context.Context, _ Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("store unavailable", nil)
		}
		return nil
	}, nil)
	require.NoError(t, err)
	c.backoff = time.Millisecond

	runUntilDrained(t, c, reader)

	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{7}, reader.committed)
	assert.Empty(t, dlq.written)
}

func TestConsumer_PermanentFailureGoesToDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("a"), Value: []byte("{"), Offset: 3})
	dlq := &fakeWriter{}

	var calls int
	c, err := NewConsumerWithReader(reader, dlq, "intake", "group", func(_ context.Context, msg Message) error {
		calls++
		var v map[string]any
		return msg.DecodeValue(&v)
	}, nil)
	require.NoError(t, err)

	runUntilDrained(t, c, reader)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{3}, reader.committed)
	require.Len(t, dlq.written, 1)
	assert.Equal(t, "group", fromKafkaMessage(dlq.written[0]).Headers["dlq-consumer-group"])
}

func runUntilDrained(t *testing.T, c *Consumer, reader *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain the reader")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, c.Close())
}
