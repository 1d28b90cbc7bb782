package server

import (
	"encoding/json"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) Event {
	t.Helper()
	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBrokerPublishReachesTeamAndFirehose(t *testing.T) {
	b := NewBroker()

	team := b.Subscribe("team-1")
	defer b.Unsubscribe("team-1", team)
	other := b.Subscribe("team-2")
	defer b.Unsubscribe("team-2", other)
	firehose := b.Subscribe(topicFirehose)
	defer b.Unsubscribe(topicFirehose, firehose)

	b.Publish("team-1", Event{Type: "submission_approved"})

	ev := recv(t, team)
	if ev.Type != "submission_approved" || ev.TeamID != "team-1" {
		t.Errorf("team event = %+v", ev)
	}
	if ev.At.IsZero() {
		t.Error("event missing timestamp")
	}
	if fh := recv(t, firehose); fh.TeamID != "team-1" {
		t.Errorf("firehose event = %+v", fh)
	}

	select {
	case <-other:
		t.Error("unrelated team received the event")
	default:
	}
}

func TestBrokerBroadcast(t *testing.T) {
	b := NewBroker()

	all := b.Subscribe(topicBroadcast)
	defer b.Unsubscribe(topicBroadcast, all)
	firehose := b.Subscribe(topicFirehose)
	defer b.Unsubscribe(topicFirehose, firehose)

	b.Broadcast(Event{Type: "announcement", Message: "hello"})

	if ev := recv(t, all); ev.Message != "hello" {
		t.Errorf("broadcast event = %+v", ev)
	}
	if ev := recv(t, firehose); ev.Type != "announcement" {
		t.Errorf("firehose event = %+v", ev)
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()

	ch := b.Subscribe("team-1")
	defer b.Unsubscribe("team-1", ch)

	// Fill the buffer and then some; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("team-1", Event{Type: "spam"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}
