package main

import (
	"sync"
	"testing"
)

func TestTTStoreProbeRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1<<10, 4)
	key := mixKey(42)
	move := Move{X: 7, Y: 7}
	tt.Store(key, 5, 1234.5, TTLower, move)

	entry, ok := tt.Probe(key)
	if !ok {
		t.Fatalf("expected a hit after store")
	}
	if entry.Depth != 5 || entry.Score != 1234.5 || entry.Flag != TTLower {
		t.Fatalf("entry fields mismatch: %+v", entry)
	}
	if !entry.BestMove.Equals(move) {
		t.Fatalf("best move mismatch: %+v", entry.BestMove)
	}
	if _, ok := tt.Probe(mixKey(43)); ok {
		t.Fatalf("unexpected hit for an unknown key")
	}
}

func TestTTSameKeyAlwaysReplaced(t *testing.T) {
	tt := NewTranspositionTable(1<<10, 4)
	key := mixKey(99)
	tt.Store(key, 8, 100, TTExact, Move{X: 1, Y: 1})
	tt.Store(key, 2, -50, TTUpper, Move{X: 2, Y: 2})

	entry, ok := tt.Probe(key)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if entry.Depth != 2 || entry.Score != -50 || entry.Flag != TTUpper {
		t.Fatalf("shallower write must still replace the same key, got %+v", entry)
	}
	if tt.Count() != 1 {
		t.Fatalf("same-key stores must not grow the table, count=%d", tt.Count())
	}
}

func TestTTFullBucketEvicts(t *testing.T) {
	tt := NewTranspositionTable(1, 2)
	// Every key lands in the single bucket of a size-1 table.
	tt.Store(mixKey(1), 3, 1, TTExact, Move{})
	tt.Store(mixKey(2), 3, 2, TTExact, Move{})
	tt.Store(mixKey(3), 9, 3, TTExact, Move{})

	if tt.Count() != 2 {
		t.Fatalf("expected a full bucket of 2, got %d", tt.Count())
	}
	if _, ok := tt.Probe(mixKey(3)); !ok {
		t.Fatalf("deeper new entry must win a slot")
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1<<8, 2)
	tt.Store(mixKey(7), 4, 10, TTExact, Move{X: 3, Y: 3})
	tt.Clear()
	if tt.Count() != 0 {
		t.Fatalf("expected empty table after clear, count=%d", tt.Count())
	}
	if _, ok := tt.Probe(mixKey(7)); ok {
		t.Fatalf("unexpected hit after clear")
	}
}

func TestTTCapacity(t *testing.T) {
	tt := NewTranspositionTable(1<<8, 4)
	if tt.Capacity() != (1<<8)*4 {
		t.Fatalf("capacity mismatch: %d", tt.Capacity())
	}
}

func TestTTConcurrentProbeStore(t *testing.T) {
	tt := NewTranspositionTable(1<<12, 2)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for i := 0; i < 4000; i++ {
				key := mixKey(seed ^ uint64(i))
				depth := (i % 8) + 1
				move := Move{X: i % 19, Y: (i / 19) % 19}
				tt.Store(key, depth, float64(i), TTExact, move)
				tt.Probe(key)
				tt.Probe(key ^ 0x9e3779b97f4a7c15)
			}
		}(uint64(g + 1))
	}

	wg.Wait()
	if tt.Count() == 0 {
		t.Fatalf("expected TT to contain entries after concurrent traffic")
	}
}

func TestTTVeryOldEntriesBecomeVictims(t *testing.T) {
	tt := NewTranspositionTable(1, 2)
	tt.Store(1, 5, 10, TTLower, Move{X: 1, Y: 1})
	tt.Store(2, 5, 20, TTLower, Move{X: 2, Y: 2})
	for i := 0; i < ttVeryOldGenerations; i++ {
		tt.NextGeneration()
	}

	// Same depth and flag as the residents, so only staleness can make
	// room for the new key.
	tt.Store(3, 5, 30, TTLower, Move{X: 3, Y: 3})
	if _, ok := tt.Probe(3); !ok {
		t.Fatalf("aged-out entry should have been evicted for the new key")
	}
	if got := tt.Count(); got != 2 {
		t.Fatalf("bucket must stay full, got %d entries", got)
	}
}

func TestTTGenerationWrapStaysNonZero(t *testing.T) {
	tt := NewTranspositionTable(16, 1)
	tt.gen.Store(^uint32(0))
	tt.NextGeneration()
	if got := tt.Generation(); got == 0 {
		t.Fatalf("generation must never be zero")
	}
}
