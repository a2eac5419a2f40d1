package main

import "testing"

func newTestState(settings GameSettings) GameState {
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	return state
}

func TestCaptureApplyUndoRoundTrip(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(0, 0, CellBlack)
	state.Board.Set(1, 0, CellWhite)
	state.Board.Set(2, 0, CellWhite)
	state.recomputeHash()

	original := state.Clone()

	undo := rules.ApplyMove(&state, Move{X: 3, Y: 0}, PlayerBlack)
	if !undo.Placed {
		t.Fatalf("expected move to be applied")
	}
	if len(undo.Captured) != 2 {
		t.Fatalf("expected 2 captured stones, got %d", len(undo.Captured))
	}
	if state.Board.At(1, 0) != CellEmpty || state.Board.At(2, 0) != CellEmpty {
		t.Fatalf("captured stones not removed from board")
	}
	if state.CapturedBlack != 2 {
		t.Fatalf("expected CapturedBlack=2, got %d", state.CapturedBlack)
	}
	if state.ToMove != PlayerWhite {
		t.Fatalf("expected side to move to flip")
	}
	if state.Hash == original.Hash {
		t.Fatalf("expected hash to change after move")
	}

	rules.UndoMove(&state, undo)
	if !state.Board.Equals(original.Board) {
		t.Fatalf("board not restored after undo")
	}
	if state.CapturedBlack != original.CapturedBlack || state.CapturedWhite != original.CapturedWhite {
		t.Fatalf("capture counts not restored after undo")
	}
	if state.Hash != original.Hash {
		t.Fatalf("hash not restored after undo: got %d want %d", state.Hash, original.Hash)
	}
	if state.ToMove != original.ToMove {
		t.Fatalf("side to move not restored after undo")
	}
	if state.HasLastMove != original.HasLastMove {
		t.Fatalf("last move flag not restored after undo")
	}
}

func TestDoubleThreeRejected(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 5, CellBlack)
	state.Board.Set(7, 6, CellBlack)
	state.Board.Set(5, 7, CellBlack)
	state.Board.Set(6, 7, CellBlack)
	state.recomputeHash()

	before := state.Clone()
	legal, reason := rules.IsLegal(&state, Move{X: 7, Y: 7}, PlayerBlack)
	if legal {
		t.Fatalf("expected double three to be rejected")
	}
	if reason != ReasonDoubleThree {
		t.Fatalf("expected ReasonDoubleThree, got %v", reason)
	}
	if !state.Board.Equals(before.Board) || state.Hash != before.Hash {
		t.Fatalf("legality check mutated the state")
	}
}

func TestSingleFreeThreeAllowed(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 5, CellBlack)
	state.Board.Set(7, 6, CellBlack)
	state.recomputeHash()

	legal, reason := rules.IsLegal(&state, Move{X: 7, Y: 7}, PlayerBlack)
	if !legal {
		t.Fatalf("expected single free three to be legal, got %v", reason)
	}
}

func TestDoubleThreeNotExcusedByCapture(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 5, CellBlack)
	state.Board.Set(7, 6, CellBlack)
	state.Board.Set(5, 7, CellBlack)
	state.Board.Set(6, 7, CellBlack)
	state.Board.Set(8, 7, CellWhite)
	state.Board.Set(9, 7, CellWhite)
	state.Board.Set(10, 7, CellBlack)
	state.recomputeHash()

	// The move captures the white pair, but still lands two free threes.
	legal, reason := rules.IsLegal(&state, Move{X: 7, Y: 7}, PlayerBlack)
	if legal {
		t.Fatalf("expected capturing double three to be rejected")
	}
	if reason != ReasonDoubleThree {
		t.Fatalf("expected ReasonDoubleThree, got %v", reason)
	}
}

func TestDoubleThreeDisabledBySettings(t *testing.T) {
	settings := DefaultGameSettings()
	settings.ForbidDoubleThreeBlack = false
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 5, CellBlack)
	state.Board.Set(7, 6, CellBlack)
	state.Board.Set(5, 7, CellBlack)
	state.Board.Set(6, 7, CellBlack)
	state.recomputeHash()

	legal, _ := rules.IsLegal(&state, Move{X: 7, Y: 7}, PlayerBlack)
	if !legal {
		t.Fatalf("expected double three to be allowed when disabled for black")
	}
}

func TestIllegalReasons(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.recomputeHash()

	if legal, reason := rules.IsLegal(&state, Move{X: -1, Y: 0}, PlayerWhite); legal || reason != ReasonOutOfBounds {
		t.Fatalf("expected ReasonOutOfBounds, got legal=%v reason=%v", legal, reason)
	}
	if legal, reason := rules.IsLegal(&state, Move{X: 15, Y: 3}, PlayerWhite); legal || reason != ReasonOutOfBounds {
		t.Fatalf("expected ReasonOutOfBounds, got legal=%v reason=%v", legal, reason)
	}
	if legal, reason := rules.IsLegal(&state, Move{X: 7, Y: 7}, PlayerWhite); legal || reason != ReasonOccupied {
		t.Fatalf("expected ReasonOccupied, got legal=%v reason=%v", legal, reason)
	}
}

func TestCheckWinFindsFullRun(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	board := NewBoard(settings.BoardSize)
	for x := 3; x <= 7; x++ {
		board.Set(x, 7, CellBlack)
	}

	line, ok := rules.CheckWin(board, Move{X: 5, Y: 7}, PlayerBlack)
	if !ok {
		t.Fatalf("expected five in a row to win")
	}
	if len(line) != 5 {
		t.Fatalf("expected winning line of 5, got %d", len(line))
	}
	if rules.IsWin(board, Move{X: 5, Y: 7}, PlayerWhite) {
		t.Fatalf("white should not win on a black line")
	}
}

func TestFourInARowDoesNotWin(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	board := NewBoard(settings.BoardSize)
	for x := 3; x <= 6; x++ {
		board.Set(x, 7, CellBlack)
	}
	if rules.IsWin(board, Move{X: 5, Y: 7}, PlayerBlack) {
		t.Fatalf("four in a row must not win")
	}
}

func TestCaptureWinTerminal(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.CapturedBlack = settings.CaptureWinStones
	state.recomputeHash()

	if !rules.CheckTerminal(&state, Move{X: 7, Y: 7}, PlayerBlack) {
		t.Fatalf("expected capture threshold to be terminal")
	}
	state.CapturedBlack = settings.CaptureWinStones - 2
	if rules.CheckTerminal(&state, Move{X: 7, Y: 7}, PlayerBlack) {
		t.Fatalf("below-threshold captures must not be terminal")
	}
}

func TestBreakCapturesFindsLineBreaker(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	for x := 3; x <= 7; x++ {
		state.Board.Set(x, 7, CellBlack)
	}
	state.Board.Set(4, 8, CellBlack)
	state.Board.Set(4, 6, CellWhite)
	state.LastMove = Move{X: 7, Y: 7}
	state.HasLastMove = true
	state.ToMove = PlayerWhite
	state.recomputeHash()

	breaks := rules.BreakCaptures(&state, PlayerWhite)
	if len(breaks) != 1 {
		t.Fatalf("expected exactly one break capture, got %v", breaks)
	}
	if breaks[0].X != 4 || breaks[0].Y != 9 {
		t.Fatalf("expected break at (4,9), got (%d,%d)", breaks[0].X, breaks[0].Y)
	}
	if !rules.BreakableByCapture(&state, PlayerWhite) {
		t.Fatalf("expected line to be breakable")
	}
}

func TestBreakCapturesEmptyWhenLineSafe(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	for x := 3; x <= 7; x++ {
		state.Board.Set(x, 7, CellBlack)
	}
	state.LastMove = Move{X: 7, Y: 7}
	state.HasLastMove = true
	state.ToMove = PlayerWhite
	state.recomputeHash()

	if rules.BreakableByCapture(&state, PlayerWhite) {
		t.Fatalf("expected no break captures against a bare line")
	}
}

func TestFindImmediateCaptureWinMove(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(0, 0, CellWhite)
	state.Board.Set(1, 1, CellBlack)
	state.Board.Set(2, 2, CellBlack)
	state.CapturedWhite = settings.CaptureWinStones - 2
	state.ToMove = PlayerWhite
	state.recomputeHash()

	move, captured, ok := rules.FindImmediateCaptureWinMove(&state, PlayerWhite)
	if !ok {
		t.Fatalf("expected an immediate capture win")
	}
	if move.X != 3 || move.Y != 3 {
		t.Fatalf("expected capture win at (3,3), got (%d,%d)", move.X, move.Y)
	}
	if len(captured) != 2 {
		t.Fatalf("expected 2 captured stones, got %d", len(captured))
	}

	state.CapturedWhite = 0
	if _, _, ok := rules.FindImmediateCaptureWinMove(&state, PlayerWhite); ok {
		t.Fatalf("one pair must not reach the capture-win threshold")
	}
}

func TestForcedCaptureRestriction(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(7, 7, CellBlack)
	state.MustCapture = true
	state.ForcedCaptureMoves = []Move{{X: 4, Y: 9}}
	state.ToMove = PlayerWhite
	state.recomputeHash()

	if legal, _ := rules.IsLegalDefault(&state, Move{X: 0, Y: 0}); legal {
		t.Fatalf("expected non-breaking move to be rejected under forced capture")
	}
	if legal, reason := rules.IsLegalDefault(&state, Move{X: 4, Y: 9}); !legal {
		t.Fatalf("expected forced capture move to be legal, got %v", reason)
	}
}

func TestFirstLegalMove(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := newTestState(settings)
	state.Board.Set(0, 0, CellBlack)
	state.recomputeHash()

	move, ok := rules.FirstLegalMove(&state, PlayerWhite)
	if !ok {
		t.Fatalf("expected a legal move on a nearly empty board")
	}
	if move.X == 0 && move.Y == 0 {
		t.Fatalf("first legal move must not be an occupied cell")
	}
}
