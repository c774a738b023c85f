package state

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryDefaultsToIdle(t *testing.T) {
	m := NewMemory()
	st, err := m.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st != Idle {
		t.Fatalf("expected Idle, got %q", st)
	}
}

func TestMemorySetAndClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, 1, AwaitingCity); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if st, _ := m.Get(ctx, 1); st != AwaitingCity {
		t.Fatalf("expected AwaitingCity, got %q", st)
	}
	if st, _ := m.Get(ctx, 2); st != Idle {
		t.Fatalf("other chat should be Idle, got %q", st)
	}

	if err := m.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if st, _ := m.Get(ctx, 1); st != Idle {
		t.Fatalf("expected Idle after Clear, got %q", st)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no entries, got %d", m.Len())
	}
}

func TestMemorySetIdleRemovesEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, 7, AwaitingCity)
	_ = m.Set(ctx, 7, Idle)
	if m.Len() != 0 {
		t.Fatalf("Set(Idle) should drop the entry, have %d", m.Len())
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = m.Set(ctx, id, AwaitingCity)
			_, _ = m.Get(ctx, id)
			_ = m.Clear(ctx, id)
		}(i)
	}
	wg.Wait()
	if m.Len() != 0 {
		t.Fatalf("expected empty store, got %d", m.Len())
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		raw  string
		want State
		ok   bool
	}{
		{"idle", Idle, true},
		{"", Idle, true},
		{"awaiting_city", AwaitingCity, true},
		{" awaiting_city ", AwaitingCity, true},
		{"bogus", Idle, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Parse(%q) = %q,%v want %q,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
