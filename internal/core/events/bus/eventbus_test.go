package bus

import (
	"errors"
	"testing"
	"time"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("extras.injected", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("extras.injected", "tester", 123, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err = b.Publish(NewEvent("other", "tester", 456, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != 123 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestDeliveryOrderFollowsSubscriptions(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if _, err := b.Subscribe("x", func(Event) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("sub: %v", err)
		}
	}
	if err := b.Publish(NewEvent("x", "src", nil, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("x", func(Event) error { calls++; return nil })
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if sub.ID() == "" || sub.EventType() != "x" {
		t.Fatalf("bad subscription: %q %q", sub.ID(), sub.EventType())
	}
	_ = b.Publish(NewEvent("x", "src", nil, nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = sub.Cancel()
	_ = b.Publish(NewEvent("x", "src", nil, nil))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	if m := b.GetMetrics(); m.SubscribersActive != 0 {
		t.Fatalf("active subscribers = %d", m.SubscribersActive)
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	e1, e2 := errors.New("one"), errors.New("two")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.PublishBatch(NewEvent("x", "src", nil, nil), NewEvent("y", "src", nil, nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if m := b.GetMetrics(); m.Published != 2 || m.Errors != 1 || m.DeliveredHandlers != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestObservers(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	_, _ = b.Subscribe("x", func(Event) error { return nil })

	if err := b.Publish(NewEvent("x", "src", nil, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 || obs.lastErr != nil {
		t.Fatalf("observer = %+v", obs)
	}

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("x", "src", nil, nil))
	if obs.publishCount != 1 {
		t.Fatal("removed observer still notified")
	}
}
