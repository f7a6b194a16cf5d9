package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestChangeMessage_JSON(t *testing.T) {
	msg := &ChangeMessage{
		Type:   "subscription_change",
		UserID: 42,
		Status: "active",
		Source: SourcePayment,
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	// Verify snake_case keys
	var raw map[string]interface{}
	err = json.Unmarshal(data, &raw)
	require.NoError(t, err)
	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "source")

	var decoded ChangeMessage
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, msg.UserID, decoded.UserID)
	assert.Equal(t, msg.Status, decoded.Status)
	assert.Equal(t, msg.Source, decoded.Source)
}

func TestPublishChange_SetsType(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client)

	msg := &ChangeMessage{UserID: 1, Status: "active", Source: SourceAdmin}
	err := publisher.PublishChange(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, TypeSubscriptionChange, msg.Type)
}

func TestPublishChange_KeepsExplicitType(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client)

	msg := &ChangeMessage{Type: TypeProfileChange, UserID: 1, Source: SourceProfile}
	err := publisher.PublishChange(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, TypeProfileChange, msg.Type)
}

func TestPublisherSubscriber_RoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *ChangeMessage, 1)
	go func() {
		subscriber.Subscribe(ctx, func(msg *ChangeMessage) {
			received <- msg
		})
	}()

	// Give subscriber time to connect
	time.Sleep(100 * time.Millisecond)

	err := publisher.PublishChange(ctx, &ChangeMessage{
		UserID: 42,
		Status: "active",
		Source: SourcePayment,
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, int64(42), msg.UserID)
		assert.Equal(t, "active", msg.Status)
		assert.Equal(t, SourcePayment, msg.Source)
		assert.Equal(t, "subscription_change", msg.Type)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestSubscribe_CancelExits(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- subscriber.Subscribe(ctx, func(*ChangeMessage) {})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not exit after cancel")
	}
}
