package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestNewCircuitBreakerRegistry(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
	}

	registry := NewCircuitBreakerRegistry(config)

	if registry == nil {
		t.Fatal("expected registry to be created")
	}
	if registry.breakers == nil {
		t.Error("expected breakers map to be initialized")
	}
	if registry.config.MinRequests != DefaultCircuitBreakerConfig.MinRequests {
		t.Errorf("expected MinRequests to default, got %d", registry.config.MinRequests)
	}
}

func TestCircuitBreakerRegistry_GetBreaker(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	agent1 := registry.GetBreaker(BreakerAgent)
	if agent1 == nil {
		t.Fatal("expected breaker to be created")
	}
	if agent2 := registry.GetBreaker(BreakerAgent); agent1 != agent2 {
		t.Error("expected same breaker instance")
	}
	if scheduler := registry.GetBreaker(BreakerScheduler); agent1 == scheduler {
		t.Error("expected different breaker for different name")
	}
}

func TestCircuitBreakerRegistry_Execute(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	result, err := registry.Execute(ctx, BreakerAgent, func() (any, error) {
		return "success", nil
	})
	if err != nil || result != "success" {
		t.Errorf("Execute() = %v, %v", result, err)
	}

	expectedErr := errors.New("connection refused")
	result, err = registry.Execute(ctx, BreakerAgent, func() (any, error) {
		return nil, expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestCircuitBreakerRegistry_Execute_ContextCanceled(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := registry.Execute(ctx, BreakerAgent, func() (any, error) {
		called = true
		return "should not reach", nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("fn should not run with a cancelled context")
	}
	if status := registry.Status()[BreakerAgent]; status.TotalFailures != 0 {
		t.Errorf("cancellation should not count as a failure, got %d", status.TotalFailures)
	}
}

func TestCircuitBreakerRegistry_Status(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	_, _ = registry.Execute(ctx, BreakerAgent, func() (any, error) {
		return "ok", nil
	})
	_, _ = registry.Execute(ctx, BreakerScheduler, func() (any, error) {
		return nil, errors.New("fail")
	})

	status := registry.Status()

	if len(status) != 2 {
		t.Errorf("expected 2 breakers in status, got %d", len(status))
	}
	if status[BreakerAgent].TotalSuccesses != 1 {
		t.Errorf("expected 1 success for agent, got %d", status[BreakerAgent].TotalSuccesses)
	}
	if status[BreakerScheduler].TotalFailures != 1 {
		t.Errorf("expected 1 failure for scheduler, got %d", status[BreakerScheduler].TotalFailures)
	}
}

func TestCircuitBreakerRegistry_TripsAfterFailures(t *testing.T) {
	registry := NewCircuitBreakerRegistry(CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     1 * time.Second,
		MinRequests: 5,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = registry.Execute(ctx, BreakerScheduler, func() (any, error) {
			return nil, errors.New("fail")
		})
	}

	if state := registry.Status()[BreakerScheduler].State; state != "open" {
		t.Fatalf("expected breaker to be open, got %s", state)
	}

	called := false
	_, err := registry.Execute(ctx, BreakerScheduler, func() (any, error) {
		called = true
		return "should not execute", nil
	})

	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
	if called {
		t.Error("open breaker should not call through")
	}
}

func TestCall_Typed(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	type payload struct {
		Value int
	}

	result, err := Call(ctx, registry, "typed", func() (*payload, error) {
		return &payload{Value: 42}, nil
	})
	if err != nil || result.Value != 42 {
		t.Errorf("Call() = %+v, %v", result, err)
	}

	items, err := Call(ctx, registry, "slice", func() ([]int, error) {
		return []int{1, 2, 3}, nil
	})
	if err != nil || len(items) != 3 {
		t.Errorf("Call() = %v, %v", items, err)
	}

	s, err := Call(ctx, registry, "error", func() (string, error) {
		return "ignored", errors.New("boom")
	})
	if err == nil || s != "" {
		t.Errorf("expected zero value and error, got %q, %v", s, err)
	}

	var nilPtr *payload
	got, err := Call(ctx, registry, "nil", func() (*payload, error) {
		return nilPtr, nil
	})
	if err != nil || got != nil {
		t.Errorf("expected typed nil, got %+v, %v", got, err)
	}
}

func TestCall_NilRegistryUsesGlobal(t *testing.T) {
	_, err := Call(context.Background(), nil, "global-test", func() (int, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := GetGlobalRegistry().Status()["global-test"]; !ok {
		t.Error("expected the global registry to own the breaker")
	}
}

func TestGetGlobalRegistry(t *testing.T) {
	registry := GetGlobalRegistry()
	if registry == nil {
		t.Fatal("expected global registry to be created")
	}
	if registry != GetGlobalRegistry() {
		t.Error("expected same global registry instance")
	}
}

func TestCircuitBreakerRegistry_GetBreaker_Concurrent(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	const goroutines = 100
	var wg sync.WaitGroup
	breakers := make(chan *gobreaker.CircuitBreaker[any], goroutines)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			breakers <- registry.GetBreaker(BreakerAgent)
		}()
	}

	wg.Wait()
	close(breakers)

	var first *gobreaker.CircuitBreaker[any]
	for cb := range breakers {
		if first == nil {
			first = cb
		} else if cb != first {
			t.Error("all goroutines should get the same breaker instance")
		}
	}

	if len(registry.Status()) != 1 {
		t.Errorf("expected 1 breaker, got %d", len(registry.Status()))
	}
}

func TestStateToInt(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  int
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := stateToInt(tt.state); got != tt.want {
			t.Errorf("stateToInt(%v) = %d, want %d", tt.state, got, tt.want)
		}
	}
}
