package component

import (
	"context"
	"errors"
	"testing"
)

type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) Health { return m.health }

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() Description {
	return Description{Type: "storage", Details: "provider=memory"}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&mockComponent{name: "db"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "db"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	r := NewRegistry(nil)
	for _, name := range []string{"database", "redis", "storage"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	wantStart := []string{"database", "redis", "storage"}
	wantStop := []string{"storage", "redis", "database"}
	for i := range wantStart {
		if started[i] != wantStart[i] {
			t.Errorf("start[%d]: expected %s, got %s", i, wantStart[i], started[i])
		}
		if stopped[i] != wantStop[i] {
			t.Errorf("stop[%d]: expected %s, got %s", i, wantStop[i], stopped[i])
		}
	}
}

func TestStartAllFailureStopsStarted(t *testing.T) {
	var started, stopped []string
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "b", startErr: errors.New("boom"), startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "c", startOrder: &started, stopOrder: &stopped})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	if len(started) != 2 {
		t.Errorf("expected c never started, got %v", started)
	}
	if len(stopped) != 1 || stopped[0] != "a" {
		t.Errorf("expected only a stopped, got %v", stopped)
	}
}

func TestStopAllCollectsErrors(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", stopErr: errors.New("stuck")})
	_ = r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected shutdown error")
	}
}

func TestHealthAllAndOverall(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded}})

	healths := r.HealthAll(context.Background())
	if len(healths) != 2 {
		t.Fatalf("expected 2 health entries, got %d", len(healths))
	}
	if got := Overall(healths); got != StatusDegraded {
		t.Errorf("expected degraded, got %s", got)
	}
	healths = append(healths, Health{Name: "c", Status: StatusUnhealthy})
	if got := Overall(healths); got != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", got)
	}
	if got := Overall(nil); got != StatusHealthy {
		t.Errorf("expected healthy for empty, got %s", got)
	}
}

func TestDescribeAndGet(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "plain"})
	_ = r.Register(&describedComponent{mockComponent{name: "storage"}})

	descs := r.Describe()
	if len(descs) != 1 {
		t.Fatalf("expected 1 description, got %d", len(descs))
	}
	if descs[0].Name != "storage" || descs[0].Details != "provider=memory" {
		t.Errorf("unexpected description %+v", descs[0])
	}
	if r.Get("plain") == nil {
		t.Error("expected to find plain")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for missing")
	}
}
