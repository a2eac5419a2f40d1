package main

import (
	"math"
	"testing"
)

func defaultEvaluator() Evaluator {
	return NewEvaluator(DefaultConfig().Heuristics, DefaultGameSettings())
}

func TestOpenThreeScore(t *testing.T) {
	eval := defaultEvaluator()
	board := NewBoard(15)
	board.Set(6, 7, CellBlack)
	board.Set(7, 7, CellBlack)
	board.Set(8, 7, CellBlack)

	got := eval.ScoreLinesAt(board, 7, 7, PlayerBlack, false)
	want := DefaultConfig().Heuristics.OpenThree
	if got != want {
		t.Fatalf("open three score: got %v want %v", got, want)
	}
}

func TestFiveInWindowScoresPendingWin(t *testing.T) {
	eval := defaultEvaluator()
	board := NewBoard(15)
	for x := 3; x <= 7; x++ {
		board.Set(x, 7, CellBlack)
	}
	got := eval.ScoreLinesAt(board, 5, 7, PlayerBlack, false)
	want := DefaultConfig().Heuristics.PendingWin
	if got != want {
		t.Fatalf("five in window: got %v want %v", got, want)
	}
}

func TestBlockedThreeScoresClosed(t *testing.T) {
	eval := defaultEvaluator()
	board := NewBoard(15)
	board.Set(5, 7, CellWhite)
	board.Set(6, 7, CellBlack)
	board.Set(7, 7, CellBlack)
	board.Set(8, 7, CellBlack)

	got := eval.ScoreLinesAt(board, 7, 7, PlayerBlack, false)
	open := DefaultConfig().Heuristics.OpenThree
	if got >= open {
		t.Fatalf("blocked three must score below an open three: got %v", got)
	}
	if got <= 0 {
		t.Fatalf("blocked three must still score positive, got %v", got)
	}
}

func TestCaptureThreatEscalatesWhenCritical(t *testing.T) {
	eval := defaultEvaluator()
	board := NewBoard(15)
	board.Set(5, 5, CellBlack)
	board.Set(6, 5, CellWhite)
	board.Set(7, 5, CellWhite)

	weights := DefaultConfig().Heuristics
	calm := eval.ScoreLinesAt(board, 5, 5, PlayerBlack, false)
	if calm != weights.CaptureThreat {
		t.Fatalf("capture threat: got %v want %v", calm, weights.CaptureThreat)
	}
	critical := eval.ScoreLinesAt(board, 5, 5, PlayerBlack, true)
	if critical != weights.PendingWin {
		t.Fatalf("critical capture threat: got %v want %v", critical, weights.PendingWin)
	}
}

func TestCaptureScoreSuperlinear(t *testing.T) {
	eval := defaultEvaluator()
	onePair := eval.captureScoreFor(2)
	twoPairs := eval.captureScoreFor(4)
	threePairs := eval.captureScoreFor(6)
	if onePair <= 0 {
		t.Fatalf("expected positive capture score")
	}
	if twoPairs-onePair <= onePair {
		t.Fatalf("second pair must be worth more than the first: %v vs %v", twoPairs-onePair, onePair)
	}
	if threePairs-twoPairs <= twoPairs-onePair {
		t.Fatalf("third pair must be worth more than the second")
	}
	if eval.captureScoreFor(0) != 0 {
		t.Fatalf("no captures must score zero")
	}
}

func TestOpponentWeightedEvaluation(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	state := newTestState(settings)
	for x := 3; x <= 5; x++ {
		state.Board.Set(x, 3, CellBlack)
		state.Board.Set(x, 11, CellWhite)
	}
	state.recomputeHash()

	fromBlack := eval.EvaluateBoard(&state, PlayerBlack)
	fromWhite := eval.EvaluateBoard(&state, PlayerWhite)
	if fromBlack >= 0 {
		t.Fatalf("mirrored threats must favor the opponent weighting: got %v", fromBlack)
	}
	if math.Abs(fromBlack+fromWhite) > 1e-6 {
		t.Fatalf("mirrored position must be antisymmetric: %v vs %v", fromBlack, fromWhite)
	}
}

func TestCaptureWinDominatesLines(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	state := newTestState(settings)
	state.Board.Set(7, 7, CellWhite)
	state.CapturedWhite = settings.CaptureWinStones
	state.recomputeHash()

	got := eval.ScorePlayer(&state, PlayerWhite)
	if got != DefaultConfig().Heuristics.Win {
		t.Fatalf("capture win must score the absolute win value, got %v", got)
	}
}

func TestVulnerabilityPenalty(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	state := newTestState(settings)
	state.Board.Set(5, 5, CellBlack)
	state.Board.Set(6, 5, CellBlack)
	state.Board.Set(4, 5, CellWhite)
	state.recomputeHash()

	weights := DefaultConfig().Heuristics
	got := eval.vulnerabilityPenalty(&state, PlayerBlack)
	want := 2 * weights.VulnerablePenalty
	if got != want {
		t.Fatalf("vulnerability penalty: got %v want %v", got, want)
	}

	state.CapturedWhite = settings.CaptureWinStones - 2
	critical := eval.vulnerabilityPenalty(&state, PlayerBlack)
	if critical != 2*weights.VulnerableCritical {
		t.Fatalf("critical vulnerability penalty: got %v want %v", critical, 2*weights.VulnerableCritical)
	}
}

func TestVulnerabilityIgnoresProtectedPair(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	state := newTestState(settings)
	state.Board.Set(5, 5, CellBlack)
	state.Board.Set(6, 5, CellBlack)
	state.Board.Set(4, 5, CellWhite)
	state.Board.Set(7, 5, CellBlack)
	state.recomputeHash()

	if got := eval.vulnerabilityPenalty(&state, PlayerBlack); got != 0 {
		t.Fatalf("a backed pair is not capturable, got penalty %v", got)
	}
}

func TestDeltaAccountsForCaptures(t *testing.T) {
	eval := defaultEvaluator()
	parts := ScoreDeltaParts{MyLines: 100, OppLines: 50}
	after := ScoreDeltaParts{MyLines: 300, OppLines: 50}

	noCapture := eval.Delta(parts, after, 0, 0)
	withCapture := eval.Delta(parts, after, 0, 2)
	if withCapture-noCapture != eval.captureScoreFor(2) {
		t.Fatalf("capture delta mismatch: %v vs %v", withCapture-noCapture, eval.captureScoreFor(2))
	}

	oppGrew := eval.Delta(parts, ScoreDeltaParts{MyLines: 100, OppLines: 150}, 0, 0)
	if oppGrew >= 0 {
		t.Fatalf("opponent line growth must lower the delta, got %v", oppGrew)
	}
	if math.Abs(oppGrew-(-110)) > 1e-9 {
		t.Fatalf("opponent delta must carry the 1.1 weight, got %v", oppGrew)
	}
}

// Full-board evaluation counts a pattern once per anchoring stone after the
// radius-limited dedup, so EvaluateBoard differences only approximate an
// accumulated delta. The exact contract is local: Delta must equal the
// recomputed line scores through the move point plus the capture change,
// with the 1.1 opponent weight applied to the opponent side.
func TestDeltaMatchesLineRecompute(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(5, 5, CellBlack)
	state.Board.Set(6, 5, CellBlack)
	state.Board.Set(8, 5, CellWhite)
	state.Board.Set(9, 5, CellWhite)
	state.Board.Set(10, 5, CellBlack)
	state.recomputeHash()

	move := Move{X: 7, Y: 5}
	myBefore := eval.ScoreLinesAt(state.Board, move.X, move.Y, PlayerBlack, false)
	oppBefore := eval.ScoreLinesAt(state.Board, move.X, move.Y, PlayerWhite, false)
	before := eval.DeltaParts(state.Board, move.X, move.Y, PlayerBlack, false, false)
	prevCaptured := state.Captured(PlayerBlack)

	undo := rules.ApplyMove(&state, move, PlayerBlack)
	if state.Captured(PlayerBlack) != prevCaptured+2 {
		t.Fatalf("placement at (7,5) must capture the white pair, captured %d", state.Captured(PlayerBlack))
	}
	myAfter := eval.ScoreLinesAt(state.Board, move.X, move.Y, PlayerBlack, false)
	oppAfter := eval.ScoreLinesAt(state.Board, move.X, move.Y, PlayerWhite, false)
	after := eval.DeltaParts(state.Board, move.X, move.Y, PlayerBlack, false, false)

	got := eval.Delta(before, after, prevCaptured, state.Captured(PlayerBlack))
	captureGain := eval.captureScoreFor(state.Captured(PlayerBlack)) - eval.captureScoreFor(prevCaptured)
	want := (myAfter - myBefore + captureGain) - (oppAfter-oppBefore)*1.1
	rules.UndoMove(&state, undo)

	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("delta %v does not match line recompute %v", got, want)
	}
	if got <= 0 {
		t.Fatalf("capturing a pair while extending must improve the delta, got %v", got)
	}
}

func TestRunningScoreAccumulatesMoverDeltas(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.Board.Set(3, 3, CellWhite)
	state.recomputeHash()

	// Replays the search bookkeeping: mover-perspective deltas added for
	// the maximizer and subtracted for the minimizer.
	plays := []struct {
		move  Move
		mover PlayerColor
	}{
		{Move{X: 8, Y: 7}, PlayerBlack},
		{Move{X: 4, Y: 3}, PlayerWhite},
		{Move{X: 9, Y: 7}, PlayerBlack},
	}
	running := 0.0
	var undos []MoveUndo
	for _, play := range plays {
		prevCaptured := state.Captured(play.mover)
		before := eval.DeltaParts(state.Board, play.move.X, play.move.Y, play.mover, false, false)
		undos = append(undos, rules.ApplyMove(&state, play.move, play.mover))
		after := eval.DeltaParts(state.Board, play.move.X, play.move.Y, play.mover, false, false)
		delta := eval.Delta(before, after, prevCaptured, state.Captured(play.mover))
		if play.mover == PlayerBlack {
			running += delta
		} else {
			running -= delta
		}
	}
	for i := len(undos) - 1; i >= 0; i-- {
		rules.UndoMove(&state, undos[i])
	}

	// Black built an open three against White's pair, so the accumulated
	// score must favor Black even after subtracting White's gain.
	if running <= 0 {
		t.Fatalf("accumulated running score must favor the stronger side, got %v", running)
	}
}

func TestDeltaPartsMeasureBothSides(t *testing.T) {
	eval := defaultEvaluator()
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(6, 7, CellBlack)
	state.Board.Set(7, 7, CellBlack)
	state.recomputeHash()

	move := Move{X: 8, Y: 7}
	before := eval.DeltaParts(state.Board, move.X, move.Y, PlayerBlack, false, false)
	undo := rules.ApplyMove(&state, move, PlayerBlack)
	after := eval.DeltaParts(state.Board, move.X, move.Y, PlayerBlack, false, false)
	rules.UndoMove(&state, undo)

	delta := eval.Delta(before, after, 0, 0)
	if delta <= 0 {
		t.Fatalf("extending a pair into an open three must improve the delta, got %v", delta)
	}
}
