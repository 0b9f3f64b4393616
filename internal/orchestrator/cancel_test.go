package orchestrator

import (
	"context"
	"testing"
	"time"
)

func TestCancelRegistryCancelsRegisteredFunc(t *testing.T) {
	r := NewCancelRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.register("session-1", cancel)

	r.Cancel("session-1")

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Cancel() did not invoke the registered cancel func")
	}
}

func TestCancelRegistryUnknownSessionIsNoOp(t *testing.T) {
	r := NewCancelRegistry()
	r.Cancel("never-registered")
}

func TestCancelRegistryUnregisterPreventsFutureCancel(t *testing.T) {
	r := NewCancelRegistry()
	called := false
	_, cancel := context.WithCancel(context.Background())
	r.register("session-1", func() { called = true; cancel() })
	r.unregister("session-1")

	r.Cancel("session-1")

	if called {
		t.Error("Cancel() invoked a cancel func after it was unregistered")
	}
}

func TestCancelRegistryReplacesOnReregister(t *testing.T) {
	r := NewCancelRegistry()
	firstCalled := false
	secondCalled := false

	r.register("session-1", func() { firstCalled = true })
	r.register("session-1", func() { secondCalled = true })

	r.Cancel("session-1")

	if firstCalled {
		t.Error("first cancel func was invoked after being replaced")
	}
	if !secondCalled {
		t.Error("second cancel func was not invoked")
	}
}
