package main

import "sync"

// AIPlayer runs one search at a time on a background goroutine. The search
// itself is single threaded; the goroutine only keeps the game loop
// responsive while the engine thinks.
type AIPlayer struct {
	mu         sync.Mutex
	thinking   bool
	ready      bool
	result     SearchResult
	generation int
	tt         *TranspositionTable
}

func NewAIPlayer() *AIPlayer {
	return &AIPlayer{}
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

// ChooseMove decides synchronously. The asynchronous path below is
// preferred by the game loop; this stays for callers that want a blocking
// answer.
func (a *AIPlayer) ChooseMove(state GameState, rules Rules) Move {
	result := a.decide(&state, rules, GetConfig())
	return result.Move
}

func (a *AIPlayer) decide(state *GameState, rules Rules, cfg Config) SearchResult {
	eval := NewEvaluator(cfg.Heuristics, rules.Settings())
	ctx := newSearchContext(rules, eval, cfg, a.ensureTT(cfg))
	result := ctx.Decide(state, state.ToMove)
	logSearchStats(state.ToMove, result)
	return result
}

func (a *AIPlayer) ensureTT(cfg Config) *TranspositionTable {
	a.mu.Lock()
	defer a.mu.Unlock()
	want := cfg.AiTtEntries * cfg.AiTtBucketSize
	if a.tt == nil || a.tt.Capacity() != want {
		a.tt = NewTranspositionTable(uint64(cfg.AiTtEntries), cfg.AiTtBucketSize)
	}
	return a.tt
}

// StartThinking launches a search on a clone of state. Results from a
// search that was stopped or superseded are discarded by generation.
func (a *AIPlayer) StartThinking(state GameState, rules Rules) {
	a.mu.Lock()
	if a.thinking {
		a.mu.Unlock()
		return
	}
	a.thinking = true
	a.ready = false
	gen := a.generation
	cfg := GetConfig()
	a.mu.Unlock()

	go func() {
		result := a.decide(&state, rules, cfg)
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation != gen {
			return
		}
		a.thinking = false
		if result.HasMove {
			a.result = result
			a.ready = true
		}
	}()
}

func (a *AIPlayer) IsThinking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.thinking
}

func (a *AIPlayer) HasMoveReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *AIPlayer) TakeMove() (Move, SearchResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ready = false
	return a.result.Move, a.result
}

// StopThinking abandons any in-flight or ready result. The running
// goroutine finishes its time budget on its own; its result is ignored.
func (a *AIPlayer) StopThinking() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.thinking = false
	a.ready = false
}

func (a *AIPlayer) ResetForConfigChange() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.thinking = false
	a.ready = false
	a.tt = nil
}

func logSearchStats(player PlayerColor, result SearchResult) {
	stats := result.Stats
	Log().Infow("search complete",
		"player", CellFromPlayer(player).String(),
		"move_x", result.Move.X,
		"move_y", result.Move.Y,
		"score", result.Score,
		"depth", result.Depth,
		"nodes", stats.Nodes,
		"tt_hits", stats.TTHits,
		"cutoffs", stats.Cutoffs,
		"null_cutoffs", stats.NullCutoffs,
		"lmr_researches", stats.LMRReSearches,
		"timed_out", stats.TimedOut,
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)
}
