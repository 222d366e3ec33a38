package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJetStream records published messages; every other method panics if called.
type fakeJetStream struct {
	jetstream.JetStream
	subject string
	data    []byte
	err     error
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.subject = subject
	f.data = data
	if f.err != nil {
		return nil, f.err
	}
	return &jetstream.PubAck{Stream: "PRODUCTS", Sequence: 1}, nil
}

type testEvent struct {
	payloadErr error
}

func (testEvent) Subject() string { return "products.test" }

func (e testEvent) Payload() ([]byte, error) {
	if e.payloadErr != nil {
		return nil, e.payloadErr
	}
	return []byte(`{"ok":true}`), nil
}

func Test_NatsPublisher_Publish(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		js := &fakeJetStream{}
		err := NewNatsPublisher(js).Publish(context.Background(), testEvent{})
		require.NoError(t, err)
		assert.Equal(t, "products.test", js.subject)
		assert.JSONEq(t, `{"ok":true}`, string(js.data))
	})
	t.Run("payload error", func(t *testing.T) {
		js := &fakeJetStream{}
		payloadErr := errors.New("bad payload")
		err := NewNatsPublisher(js).Publish(context.Background(), testEvent{payloadErr: payloadErr})
		require.ErrorIs(t, err, payloadErr)
		assert.Empty(t, js.subject)
	})
	t.Run("broker error", func(t *testing.T) {
		brokerErr := errors.New("no responders")
		js := &fakeJetStream{err: brokerErr}
		err := NewNatsPublisher(js).Publish(context.Background(), testEvent{})
		require.ErrorIs(t, err, brokerErr)
		assert.Contains(t, err.Error(), "products.test")
	})
}
