package main

// Line windows are encoded numerically so pattern matching is a byte
// comparison, not a string build. Each axis through a point becomes a
// radius-6 window (13 symbols) from the scored player's perspective.
const (
	symEmpty byte = 0
	symSelf  byte = 1
	symOpp   byte = 2
	symOff   byte = 3
)

const (
	lineRadius  = 6
	lineLen     = 2*lineRadius + 1
	dedupRadius = 4
)

var lineAxes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

var (
	patWin      = []byte{1, 1, 1, 1, 1}
	patOpenFour = []byte{0, 1, 1, 1, 1, 0}

	patsBrokenFour = [][]byte{
		{0, 1, 0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0, 1, 0},
		{0, 1, 1, 0, 1, 1, 0},
	}
	patsClosedFour = [][]byte{
		{3, 1, 1, 1, 1, 0}, {0, 1, 1, 1, 1, 3},
		{2, 1, 1, 1, 1, 0}, {0, 1, 1, 1, 1, 2},
	}
	patsCaptureThreat = [][]byte{
		{1, 2, 2, 0},
		{0, 2, 2, 1},
	}
	patsOpenThree = [][]byte{
		{0, 1, 1, 1, 0},
		{0, 1, 1, 0, 1},
		{0, 1, 0, 1, 1},
	}
	patsClosedThree = [][]byte{
		{3, 1, 1, 1, 0}, {0, 1, 1, 1, 3},
		{2, 1, 1, 1, 0}, {0, 1, 1, 1, 2},
		{3, 1, 1, 0, 1}, {1, 0, 1, 1, 3},
		{2, 1, 1, 0, 1}, {1, 0, 1, 1, 2},
	}
	patsBrokenThree = [][]byte{
		{0, 1, 0, 1, 0, 1, 0},
		{0, 1, 0, 0, 1, 1, 0},
		{0, 1, 1, 0, 0, 1, 0},
	}
	patCaptureBridge = []byte{1, 2, 0, 1}
	patsOpenTwo      = [][]byte{
		{0, 1, 1, 0},
		{0, 1, 0, 1},
	}
	patsClosedTwo = [][]byte{
		{3, 1, 1, 0}, {0, 1, 1, 3},
		{2, 1, 1, 0}, {0, 1, 1, 2},
	}
)

// Evaluator scores positions for one rules configuration. It holds no
// per-position state, so a single instance is shared by game and search.
type Evaluator struct {
	weights   HeuristicWeights
	winStones int
}

func NewEvaluator(weights HeuristicWeights, settings GameSettings) Evaluator {
	return Evaluator{weights: weights, winStones: settings.CaptureWinStones}
}

func buildLineWindow(board Board, x, y, dx, dy int, self Cell, out *[lineLen]byte) {
	opp := CellBlack
	if self == CellBlack {
		opp = CellWhite
	}
	for i := -lineRadius; i <= lineRadius; i++ {
		cx, cy := x+dx*i, y+dy*i
		idx := i + lineRadius
		if !board.InBounds(cx, cy) {
			out[idx] = symOff
			continue
		}
		switch board.At(cx, cy) {
		case self:
			out[idx] = symSelf
		case opp:
			out[idx] = symOpp
		default:
			out[idx] = symEmpty
		}
	}
}

func windowContains(window *[lineLen]byte, pattern []byte) bool {
	limit := lineLen - len(pattern)
	for start := 0; start <= limit; start++ {
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
	return false
}

// scoreLineWindow recognizes every pattern class once per window. A window
// containing five in a row short-circuits with the pending-win magnitude;
// the absolute win score is reserved for finished positions so heuristic
// sums can never masquerade as a proven win.
func (e Evaluator) scoreLineWindow(window *[lineLen]byte, critical bool) float64 {
	w := e.weights
	if windowContains(window, patWin) {
		return w.PendingWin
	}
	score := 0.0
	if windowContains(window, patOpenFour) {
		score += w.OpenFour
	}
	for _, pat := range patsBrokenFour {
		if windowContains(window, pat) {
			score += w.BrokenFour
		}
	}
	for _, pat := range patsClosedFour {
		if windowContains(window, pat) {
			score += w.ClosedFour
		}
	}
	for _, pat := range patsCaptureThreat {
		if windowContains(window, pat) {
			if critical {
				score += w.PendingWin
			} else {
				score += w.CaptureThreat
			}
		}
	}
	for _, pat := range patsOpenThree {
		if windowContains(window, pat) {
			score += w.OpenThree
		}
	}
	for _, pat := range patsClosedThree {
		if windowContains(window, pat) {
			score += w.ClosedThree
		}
	}
	for _, pat := range patsBrokenThree {
		if windowContains(window, pat) {
			score += w.BrokenThree
		}
	}
	if windowContains(window, patCaptureBridge) {
		score += w.CaptureBridge
	}
	for _, pat := range patsOpenTwo {
		if windowContains(window, pat) {
			score += w.OpenTwo
		}
	}
	for _, pat := range patsClosedTwo {
		if windowContains(window, pat) {
			score += w.ClosedTwo
		}
	}
	return score
}

// ScoreLinesAt scores the 4 axis windows through (x, y) for player.
func (e Evaluator) ScoreLinesAt(board Board, x, y int, player PlayerColor, critical bool) float64 {
	self := CellFromPlayer(player)
	var window [lineLen]byte
	score := 0.0
	for _, axis := range lineAxes {
		buildLineWindow(board, x, y, axis[0], axis[1], self, &window)
		score += e.scoreLineWindow(&window, critical)
	}
	return score
}

// captureScoreFor grows super-linearly in the pair count so that each
// additional pair is worth more than the previous one. Trading board
// position for a first capture is rarely worth it; closing in on the
// capture-win threshold almost always is.
func (e Evaluator) captureScoreFor(capturedStones int) float64 {
	pairs := capturedStones / 2
	return e.weights.CaptureScore * float64(pairs) * float64(pairs+1) / 2
}

func (e Evaluator) isCritical(capturedStones int) bool {
	return capturedStones >= e.winStones-2
}

// lineKey packs the clipped dedup segment identity of the line through
// (x, y) along the given axis. Two stones anchor the same key exactly when
// their radius-limited segments coincide.
func lineKey(size, x, y, axisIdx int) uint64 {
	dx, dy := lineAxes[axisIdx][0], lineAxes[axisIdx][1]
	sx, sy := x, y
	for i := 0; i < dedupRadius; i++ {
		nx, ny := sx-dx, sy-dy
		if nx < 0 || ny < 0 || nx >= size || ny >= size {
			break
		}
		sx, sy = nx, ny
	}
	ex, ey := x, y
	for i := 0; i < dedupRadius; i++ {
		nx, ny := ex+dx, ey+dy
		if nx < 0 || ny < 0 || nx >= size || ny >= size {
			break
		}
		ex, ey = nx, ny
	}
	start := uint64(sy*size + sx)
	end := uint64(ey*size + ex)
	return uint64(axisIdx)<<40 | start<<20 | end
}

// ScorePlayer totals the capture score, every deduplicated line through an
// occupied cell, and the vulnerability penalty for player.
func (e Evaluator) ScorePlayer(state *GameState, player PlayerColor) float64 {
	captured := state.Captured(player)
	if captured >= e.winStones {
		return e.weights.Win
	}
	score := e.captureScoreFor(captured)
	critical := e.isCritical(captured)

	self := CellFromPlayer(player)
	size := state.Board.Size()
	seen := make(map[uint64]struct{}, size*4)
	var window [lineLen]byte
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if state.Board.At(x, y) == CellEmpty {
				continue
			}
			for axisIdx, axis := range lineAxes {
				key := lineKey(size, x, y, axisIdx)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				buildLineWindow(state.Board, x, y, axis[0], axis[1], self, &window)
				score += e.scoreLineWindow(&window, critical)
			}
		}
	}
	score -= e.vulnerabilityPenalty(state, player)
	return score
}

// vulnerabilityPenalty charges for own stones sitting in a half-open pair
// the opponent can capture on their next move. The charge jumps once the
// opponent is a single pair away from a capture win.
func (e Evaluator) vulnerabilityPenalty(state *GameState, player PlayerColor) float64 {
	opponent := otherPlayer(player)
	penalty := e.weights.VulnerablePenalty
	if e.isCritical(state.Captured(opponent)) {
		penalty = e.weights.VulnerableCritical
	}
	if penalty == 0 {
		return 0
	}
	self := CellFromPlayer(player)
	opp := CellFromPlayer(opponent)
	size := state.Board.Size()
	vulnerable := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if state.Board.At(x, y) != self {
				continue
			}
			if e.stoneCapturable(state.Board, x, y, self, opp) {
				vulnerable++
			}
		}
	}
	return float64(vulnerable) * penalty
}

func (e Evaluator) stoneCapturable(board Board, x, y int, self, opp Cell) bool {
	for _, dir := range captureDirs {
		dx, dy := dir[0], dir[1]
		// Stone is the inner half of a pair: check Opp-Self-Self-Empty and
		// Empty-Self-Self-Opp around it in this direction.
		if board.InBounds(x+dx, y+dy) && board.At(x+dx, y+dy) == self {
			bx, by := x-dx, y-dy
			fx, fy := x+2*dx, y+2*dy
			if board.InBounds(bx, by) && board.InBounds(fx, fy) {
				back, front := board.At(bx, by), board.At(fx, fy)
				if (back == opp && front == CellEmpty) || (back == CellEmpty && front == opp) {
					return true
				}
			}
		}
	}
	return false
}

// EvaluateBoard scores the whole position from player's perspective. The
// 1.1 weight on the opponent makes the engine prefer blocking a threat over
// mounting an equal-value one.
func (e Evaluator) EvaluateBoard(state *GameState, player PlayerColor) float64 {
	my := e.ScorePlayer(state, player)
	opp := e.ScorePlayer(state, otherPlayer(player))
	return my - opp*1.1
}

// ScoreDeltaParts captures the before-move half of the delta heuristic.
// Callers apply the move, take the after half, and subtract.
type ScoreDeltaParts struct {
	MyLines  float64
	OppLines float64
}

func (e Evaluator) DeltaParts(board Board, x, y int, player PlayerColor, myCritical, oppCritical bool) ScoreDeltaParts {
	opponent := otherPlayer(player)
	return ScoreDeltaParts{
		MyLines:  e.ScoreLinesAt(board, x, y, player, myCritical),
		OppLines: e.ScoreLinesAt(board, x, y, opponent, oppCritical),
	}
}

// Delta combines the local line changes and the mover's capture gain into a
// single signed evaluation change from the mover's perspective.
func (e Evaluator) Delta(before, after ScoreDeltaParts, prevCaptured, newCaptured int) float64 {
	deltaMyLines := after.MyLines - before.MyLines
	deltaOppLines := after.OppLines - before.OppLines
	deltaCaptures := e.captureScoreFor(newCaptured) - e.captureScoreFor(prevCaptured)
	return (deltaMyLines + deltaCaptures) - deltaOppLines*1.1
}
