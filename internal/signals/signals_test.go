package signals

import (
	"context"
	"errors"
	"testing"
)

func TestFireRunsHandlersInOrder(t *testing.T) {
	r := NewRegistry(nil)

	var order []string
	r.On(EventRegistration, "first", func(ctx context.Context, userID int64) error {
		order = append(order, "first")
		return nil
	})
	r.On(EventRegistration, "second", func(ctx context.Context, userID int64) error {
		order = append(order, "second")
		return nil
	})

	r.Fire(context.Background(), EventRegistration, 1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected [first second], got %v", order)
	}
}

func TestFireIsolatesFailingHandler(t *testing.T) {
	r := NewRegistry(nil)

	var ran []string
	r.On(EventRegistration, "fails", func(ctx context.Context, userID int64) error {
		ran = append(ran, "fails")
		return errors.New("boom")
	})
	r.On(EventRegistration, "panics", func(ctx context.Context, userID int64) error {
		ran = append(ran, "panics")
		panic("really boom")
	})
	r.On(EventRegistration, "survives", func(ctx context.Context, userID int64) error {
		ran = append(ran, "survives")
		return nil
	})

	r.Fire(context.Background(), EventRegistration, 1)

	if len(ran) != 3 || ran[2] != "survives" {
		t.Fatalf("expected all three handlers to run, got %v", ran)
	}
}

func TestFireUnknownEventIsNoop(t *testing.T) {
	r := NewRegistry(nil)
	r.Fire(context.Background(), EventRegistrationComplete, 1) // must not panic
}

func TestHandlerReceivesUserID(t *testing.T) {
	r := NewRegistry(nil)

	var got int64
	r.On(EventRegistrationComplete, "capture", func(ctx context.Context, userID int64) error {
		got = userID
		return nil
	})

	r.Fire(context.Background(), EventRegistrationComplete, 42)
	if got != 42 {
		t.Fatalf("expected user_id 42, got %d", got)
	}
}
