package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() failed: %v", err)
	}

	want := Message{Type: "announcement", Body: []byte(`{"id":"a-1"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	msg := Message{Type: "announcement", Body: []byte(`{"title":"exam week"}`)}
	env, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var got Message
	if err := json.Unmarshal(env, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Type != msg.Type || string(got.Body) != string(msg.Body) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
