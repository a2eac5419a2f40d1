package main

// IllegalReason classifies why a move is rejected. The zero value means the
// move is allowed.
type IllegalReason int

const (
	ReasonNone IllegalReason = iota
	ReasonOutOfBounds
	ReasonOccupied
	ReasonDoubleThree
	ReasonMustCapture
)

func (r IllegalReason) String() string {
	switch r {
	case ReasonOutOfBounds:
		return "out of bounds"
	case ReasonOccupied:
		return "occupied"
	case ReasonDoubleThree:
		return "forbidden double three"
	case ReasonMustCapture:
		return "must break the five by capture"
	default:
		return ""
	}
}

var captureDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

// Free-three shapes through the placed stone, listed with their mirrors.
// Symbols follow the evaluator encoding.
var freeThreePatterns = [][]byte{
	{0, 1, 1, 1, 0},
	{0, 1, 1, 0, 1},
	{1, 0, 1, 1, 0},
	{0, 1, 0, 1, 1},
	{1, 1, 0, 1, 0},
}

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

func (r Rules) Settings() GameSettings {
	return r.settings
}

// MoveUndo carries everything needed to revert an applied move exactly.
// UndoMove with a record not produced by the matching ApplyMove corrupts
// the incremental hash for the rest of the game, so records are treated as
// opaque by callers.
type MoveUndo struct {
	Move              Move
	Player            PlayerColor
	Placed            bool
	Captured          []Move
	PrevCapturedBlack int
	PrevCapturedWhite int
	PrevToMove        PlayerColor
	PrevHash          uint64
	PrevLastMove      Move
	PrevHasLastMove   bool
}

// ApplyMove places the stone, removes every captured pair, flips the side
// to move and updates the hash incrementally. An occupied or out-of-bounds
// target is a no-op record; legality is the caller's job.
func (r Rules) ApplyMove(state *GameState, move Move, player PlayerColor) MoveUndo {
	undo := MoveUndo{
		Move:              move,
		Player:            player,
		PrevCapturedBlack: state.CapturedBlack,
		PrevCapturedWhite: state.CapturedWhite,
		PrevToMove:        state.ToMove,
		PrevHash:          state.Hash,
		PrevLastMove:      state.LastMove,
		PrevHasLastMove:   state.HasLastMove,
	}
	if !state.Board.IsEmpty(move.X, move.Y) {
		return undo
	}
	undo.Placed = true

	z := GetZobrist(state.Board.Size())
	cell := CellFromPlayer(player)
	state.Board.Set(move.X, move.Y, cell)
	hash := state.Hash ^ z.stone(move.X, move.Y, player)

	undo.Captured = r.FindCaptures(state.Board, move, cell)
	opponent := otherPlayer(player)
	for _, captured := range undo.Captured {
		state.Board.Remove(captured.X, captured.Y)
		hash ^= z.stone(captured.X, captured.Y, opponent)
	}
	state.addCaptured(player, len(undo.Captured))

	if state.ToMove == PlayerWhite {
		hash ^= z.side
	}
	state.ToMove = otherPlayer(state.ToMove)
	if state.ToMove == PlayerWhite {
		hash ^= z.side
	}
	state.Hash = hash
	state.LastMove = move
	state.HasLastMove = true
	return undo
}

// UndoMove is the exact inverse of ApplyMove.
func (r Rules) UndoMove(state *GameState, undo MoveUndo) {
	if undo.Placed {
		opponent := otherPlayer(undo.Player)
		oppCell := CellFromPlayer(opponent)
		for _, captured := range undo.Captured {
			state.Board.Set(captured.X, captured.Y, oppCell)
		}
		state.Board.Remove(undo.Move.X, undo.Move.Y)
	}
	state.CapturedBlack = undo.PrevCapturedBlack
	state.CapturedWhite = undo.PrevCapturedWhite
	state.ToMove = undo.PrevToMove
	state.Hash = undo.PrevHash
	state.LastMove = undo.PrevLastMove
	state.HasLastMove = undo.PrevHasLastMove
}

// FindCaptures returns the opponent stones removed by placing cell at move:
// every Player-Opponent-Opponent-Player run in the 8 directions.
func (r Rules) FindCaptures(board Board, move Move, cell Cell) []Move {
	return r.FindCapturesInto(board, move, cell, nil)
}

func (r Rules) FindCapturesInto(board Board, move Move, cell Cell, buf []Move) []Move {
	captured := buf[:0]
	opp := CellBlack
	if cell == CellBlack {
		opp = CellWhite
	}
	for _, dir := range captureDirs {
		dx, dy := dir[0], dir[1]
		x1, y1 := move.X+dx, move.Y+dy
		x2, y2 := move.X+2*dx, move.Y+2*dy
		x3, y3 := move.X+3*dx, move.Y+3*dy
		if !board.InBounds(x3, y3) {
			continue
		}
		if board.At(x1, y1) == opp && board.At(x2, y2) == opp && board.At(x3, y3) == cell {
			captured = append(captured, Move{X: x1, Y: y1}, Move{X: x2, Y: y2})
		}
	}
	return captured
}

// IsLegal rejects off-board and occupied targets outright, then simulates
// the placement (captures included) to test the double-three restriction.
// The simulation is fully reverted before returning.
func (r Rules) IsLegal(state *GameState, move Move, player PlayerColor) (bool, IllegalReason) {
	if !state.Board.InBounds(move.X, move.Y) {
		return false, ReasonOutOfBounds
	}
	if state.Board.At(move.X, move.Y) != CellEmpty {
		return false, ReasonOccupied
	}
	forbid := r.settings.ForbidDoubleThreeBlack
	if player == PlayerWhite {
		forbid = r.settings.ForbidDoubleThreeWhite
	}
	if forbid {
		undo := r.ApplyMove(state, move, player)
		threes := r.CountFreeThrees(state.Board, move, player)
		r.UndoMove(state, undo)
		if threes >= 2 {
			return false, ReasonDoubleThree
		}
	}
	return true, ReasonNone
}

// IsLegalDefault applies the side-to-move and any forced-capture
// restriction from a pending win.
func (r Rules) IsLegalDefault(state *GameState, move Move) (bool, IllegalReason) {
	if state.MustCapture {
		allowed := false
		for _, forced := range state.ForcedCaptureMoves {
			if forced.Equals(move) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, ReasonMustCapture
		}
	}
	return r.IsLegal(state, move, state.ToMove)
}

// CountFreeThrees counts, over the 4 axes, free-three shapes that include
// the stone at move. Each axis contributes at most one.
func (r Rules) CountFreeThrees(board Board, move Move, player PlayerColor) int {
	self := CellFromPlayer(player)
	var window [lineLen]byte
	count := 0
	for _, axis := range lineAxes {
		buildLineWindow(board, move.X, move.Y, axis[0], axis[1], self, &window)
		if windowHasCenteredPattern(&window, freeThreePatterns) {
			count++
		}
	}
	return count
}

// windowHasCenteredPattern reports whether any pattern matches at an offset
// whose span covers the window center, i.e. the just-placed stone is part
// of the shape.
func windowHasCenteredPattern(window *[lineLen]byte, patterns [][]byte) bool {
	for _, pattern := range patterns {
		limit := lineLen - len(pattern)
		for start := 0; start <= limit; start++ {
			if start > lineRadius || start+len(pattern) <= lineRadius {
				continue
			}
			match := true
			for i, sym := range pattern {
				if window[start+i] != sym {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
	}
	return false
}

// CheckWin looks for a five-in-a-row through move and returns the full run.
func (r Rules) CheckWin(board Board, move Move, player PlayerColor) ([]Move, bool) {
	self := CellFromPlayer(player)
	if board.At(move.X, move.Y) != self {
		return nil, false
	}
	for _, axis := range lineAxes {
		dx, dy := axis[0], axis[1]
		line := []Move{move}
		for i := 1; ; i++ {
			x, y := move.X-dx*i, move.Y-dy*i
			if !board.InBounds(x, y) || board.At(x, y) != self {
				break
			}
			line = append([]Move{{X: x, Y: y}}, line...)
		}
		for i := 1; ; i++ {
			x, y := move.X+dx*i, move.Y+dy*i
			if !board.InBounds(x, y) || board.At(x, y) != self {
				break
			}
			line = append(line, Move{X: x, Y: y})
		}
		if len(line) >= r.settings.WinLength {
			return line, true
		}
	}
	return nil, false
}

func (r Rules) IsWin(board Board, move Move, player PlayerColor) bool {
	_, ok := r.CheckWin(board, move, player)
	return ok
}

// CheckTerminal reports whether player has won outright: enough captured
// stones, or a five-in-a-row through their last placement. Inside search a
// five is terminal; the breakable-five rule lives in the game layer only.
func (r Rules) CheckTerminal(state *GameState, move Move, player PlayerColor) bool {
	if state.Captured(player) >= r.settings.CaptureWinStones {
		return true
	}
	return r.IsWin(state.Board, move, player)
}

func (r Rules) IsDraw(board Board) bool {
	return board.CountEmpty() == 0
}

// BreakCaptures returns the legal moves by defender that capture at least
// one stone of the winning line through the attacker's last move.
func (r Rules) BreakCaptures(state *GameState, defender PlayerColor) []Move {
	if !state.HasLastMove {
		return nil
	}
	attacker := otherPlayer(defender)
	line, ok := r.CheckWin(state.Board, state.LastMove, attacker)
	if !ok {
		return nil
	}
	onLine := make(map[Move]struct{}, len(line))
	for _, cell := range line {
		onLine[Move{X: cell.X, Y: cell.Y}] = struct{}{}
	}
	cell := CellFromPlayer(defender)
	var breaks []Move
	var buf []Move
	size := state.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if state.Board.At(x, y) != CellEmpty {
				continue
			}
			move := Move{X: x, Y: y}
			buf = r.FindCapturesInto(state.Board, move, cell, buf)
			if len(buf) == 0 {
				continue
			}
			hits := false
			for _, captured := range buf {
				if _, ok := onLine[Move{X: captured.X, Y: captured.Y}]; ok {
					hits = true
					break
				}
			}
			if !hits {
				continue
			}
			if legal, _ := r.IsLegal(state, move, defender); legal {
				breaks = append(breaks, move)
			}
		}
	}
	return breaks
}

// BreakableByCapture reports whether defender can break the attacker's
// freshly formed five before it is finalized.
func (r Rules) BreakableByCapture(state *GameState, defender PlayerColor) bool {
	return len(r.BreakCaptures(state, defender)) > 0
}

// FindImmediateCaptureWinMove scans for a single placement by player that
// captures enough pairs to reach the capture-win threshold right now.
func (r Rules) FindImmediateCaptureWinMove(state *GameState, player PlayerColor) (Move, []Move, bool) {
	needed := r.settings.CaptureWinStones - state.Captured(player)
	if needed <= 0 {
		return Move{}, nil, false
	}
	cell := CellFromPlayer(player)
	var buf []Move
	size := state.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if state.Board.At(x, y) != CellEmpty {
				continue
			}
			move := Move{X: x, Y: y}
			buf = r.FindCapturesInto(state.Board, move, cell, buf)
			if len(buf) < needed {
				continue
			}
			if legal, _ := r.IsLegal(state, move, player); legal {
				return move, append([]Move(nil), buf...), true
			}
		}
	}
	return Move{}, nil, false
}

// FirstLegalMove is the degenerate fallback: a raw scan for any legal cell.
func (r Rules) FirstLegalMove(state *GameState, player PlayerColor) (Move, bool) {
	size := state.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			move := Move{X: x, Y: y}
			if legal, _ := r.IsLegal(state, move, player); legal {
				return move, true
			}
		}
	}
	return Move{}, false
}
