package main

import "testing"

func newTestGenerator(cfg Config) MoveGenerator {
	settings := cfg.GameSettings()
	rules := NewRules(settings)
	eval := NewEvaluator(cfg.Heuristics, settings)
	return NewMoveGenerator(rules, eval, cfg)
}

func containsMove(moves []Move, x, y int) bool {
	for _, move := range moves {
		if move.X == x && move.Y == y {
			return true
		}
	}
	return false
}

func TestRelevantMovesEmptyBoard(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	board := NewBoard(cfg.BoardSize)

	moves := gen.RelevantMoves(board)
	if len(moves) != 9 {
		t.Fatalf("expected 9 center moves on an empty board, got %d", len(moves))
	}
	center := cfg.BoardSize / 2
	if !containsMove(moves, center, center) {
		t.Fatalf("center cell missing from empty-board candidates")
	}
}

func TestRelevantMovesRadius(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	board := NewBoard(cfg.BoardSize)
	board.Set(7, 7, CellBlack)

	moves := gen.RelevantMoves(board)
	if len(moves) != 24 {
		t.Fatalf("expected 24 empties within radius 2, got %d", len(moves))
	}
	if containsMove(moves, 7, 7) {
		t.Fatalf("occupied cell must not be a candidate")
	}
	if containsMove(moves, 7, 10) {
		t.Fatalf("cell beyond the relevance radius must not be a candidate")
	}
	if !containsMove(moves, 5, 5) {
		t.Fatalf("radius corner missing from candidates")
	}
}

func TestRelevantMovesSwitchesToClusters(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	board := NewBoard(cfg.BoardSize)
	cell := CellBlack
	for i := 0; i < cfg.AiClusterMinStones; i++ {
		board.Set(2+i%4, 2+i/4, cell)
		if cell == CellBlack {
			cell = CellWhite
		} else {
			cell = CellBlack
		}
	}
	board.Set(12, 12, CellBlack)

	moves := gen.RelevantMoves(board)
	if len(moves) == 0 {
		t.Fatalf("expected cluster candidates")
	}
	// Padding 2 around the isolated stone reaches (10,10); the gap between
	// the two clusters stays out.
	if !containsMove(moves, 10, 10) {
		t.Fatalf("padded edge of isolated cluster missing")
	}
	if containsMove(moves, 8, 1) {
		t.Fatalf("cell outside every padded cluster must not be a candidate")
	}
}

func TestCriticalMovesFindsWinningAndBlocking(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	for x := 3; x <= 6; x++ {
		state.Board.Set(x, 7, CellBlack)
	}
	state.recomputeHash()

	candidates := gen.RelevantMoves(state.Board)
	winning, _ := gen.CriticalMoves(&state, PlayerBlack, candidates)
	if !containsMove(winning, 2, 7) || !containsMove(winning, 7, 7) {
		t.Fatalf("expected both five-completing cells to be winning, got %v", winning)
	}

	_, blocking := gen.CriticalMoves(&state, PlayerWhite, candidates)
	if !containsMove(blocking, 2, 7) || !containsMove(blocking, 7, 7) {
		t.Fatalf("expected both five-completing cells to be blocking for white, got %v", blocking)
	}
}

func TestCriticalMovesSeesCaptureWin(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	state.Board.Set(0, 0, CellWhite)
	state.Board.Set(1, 1, CellBlack)
	state.Board.Set(2, 2, CellBlack)
	state.CapturedWhite = settings.CaptureWinStones - 2
	state.ToMove = PlayerWhite
	state.recomputeHash()

	candidates := gen.RelevantMoves(state.Board)
	winning, _ := gen.CriticalMoves(&state, PlayerWhite, candidates)
	if !containsMove(winning, 3, 3) {
		t.Fatalf("expected the threshold-reaching capture to be winning, got %v", winning)
	}
}

func TestOrderMovesWinningShortCircuits(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	for x := 3; x <= 6; x++ {
		state.Board.Set(x, 7, CellBlack)
	}
	state.recomputeHash()

	moves := gen.OrderMoves(&state, PlayerBlack, orderingContext{})
	if len(moves) != 1 {
		t.Fatalf("expected a single winning move, got %v", moves)
	}
	if moves[0].Y != 7 || (moves[0].X != 2 && moves[0].X != 7) {
		t.Fatalf("expected a five-completing cell, got %v", moves[0])
	}
}

func TestOrderMovesDoubleThreatBlocksOnly(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	for x := 3; x <= 6; x++ {
		state.Board.Set(x, 7, CellBlack)
	}
	state.ToMove = PlayerWhite
	state.recomputeHash()

	moves := gen.OrderMoves(&state, PlayerWhite, orderingContext{})
	if len(moves) != 2 {
		t.Fatalf("expected only the two blocking cells, got %v", moves)
	}
	if !containsMove(moves, 2, 7) || !containsMove(moves, 7, 7) {
		t.Fatalf("expected blocks at (2,7) and (7,7), got %v", moves)
	}
}

func TestOrderMovesRespectsCandidateCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AiCandidateCapEarly = 5
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.Board.Set(8, 8, CellWhite)
	state.recomputeHash()

	moves := gen.OrderMoves(&state, PlayerBlack, orderingContext{})
	if len(moves) > 5 {
		t.Fatalf("expected at most 5 candidates, got %d", len(moves))
	}
	if len(moves) == 0 {
		t.Fatalf("expected candidates near the stones")
	}
}

func TestOrderMovesPutsPVFirst(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.Board.Set(8, 8, CellWhite)
	state.recomputeHash()

	pv := Move{X: 5, Y: 5}
	moves := gen.OrderMoves(&state, PlayerBlack, orderingContext{pv: pv, hasPV: true})
	if len(moves) == 0 || !moves[0].Equals(pv) {
		t.Fatalf("expected PV move first, got %v", moves)
	}
}

func TestStaticMoveScoreRanksThreatsAboveQuiet(t *testing.T) {
	cfg := DefaultConfig()
	gen := newTestGenerator(cfg)
	settings := cfg.GameSettings()
	state := newTestState(settings)
	state.Board.Set(6, 7, CellBlack)
	state.Board.Set(7, 7, CellBlack)
	state.recomputeHash()

	extend := gen.staticMoveScore(&state, Move{X: 8, Y: 7}, PlayerBlack)
	quiet := gen.staticMoveScore(&state, Move{X: 11, Y: 3}, PlayerBlack)
	if extend <= quiet {
		t.Fatalf("extending a pair must outrank a distant quiet move: %v vs %v", extend, quiet)
	}
}
