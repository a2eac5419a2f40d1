package main

import "sort"

type moveTier int

const (
	tierWinning moveTier = iota
	tierBlocking
	tierHigh
	tierMid
	tierLow
)

type scoredMove struct {
	move  Move
	tier  moveTier
	score float64
}

// MoveGenerator produces the candidate set for one node: relevance-windowed
// empties plus every critical (forced) move, ordered best first within
// tiers and cut to the phase cap.
type MoveGenerator struct {
	rules Rules
	eval  Evaluator
	cfg   Config
}

func NewMoveGenerator(rules Rules, eval Evaluator, cfg Config) MoveGenerator {
	return MoveGenerator{rules: rules, eval: eval, cfg: cfg}
}

type boundingBox struct {
	minX, minY, maxX, maxY int
}

func (b *boundingBox) extend(x, y int) {
	if x < b.minX {
		b.minX = x
	}
	if y < b.minY {
		b.minY = y
	}
	if x > b.maxX {
		b.maxX = x
	}
	if y > b.maxY {
		b.maxY = y
	}
}

func (b boundingBox) near(x, y, gap int) bool {
	return x >= b.minX-gap && x <= b.maxX+gap && y >= b.minY-gap && y <= b.maxY+gap
}

// RelevantMoves windows the board down to empties worth considering. An
// empty board yields the center block; a sparse board yields everything
// within the relevance radius of a stone; a filled board switches to stone
// clusters padded outward, which keeps the candidate count bounded as
// radius circles start to overlap everywhere.
func (g MoveGenerator) RelevantMoves(board Board) []Move {
	size := board.Size()
	stones := board.CountStones()
	if stones == 0 {
		center := size / 2
		moves := make([]Move, 0, 9)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if board.IsEmpty(center+dx, center+dy) {
					moves = append(moves, Move{X: center + dx, Y: center + dy})
				}
			}
		}
		return moves
	}
	if stones >= g.cfg.AiClusterMinStones {
		return g.clusteredMoves(board)
	}

	radius := g.cfg.AiRelevanceRadius
	marked := make([]bool, size*size)
	var moves []Move
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) == CellEmpty {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if !board.IsEmpty(nx, ny) {
						continue
					}
					idx := ny*size + nx
					if marked[idx] {
						continue
					}
					marked[idx] = true
					moves = append(moves, Move{X: nx, Y: ny})
				}
			}
		}
	}
	return moves
}

// clusteredMoves merges stones into bounding boxes (a stone joins a box
// when it is within the cluster gap of it), pads each box, and returns the
// empties inside the union.
func (g MoveGenerator) clusteredMoves(board Board) []Move {
	size := board.Size()
	var boxes []boundingBox
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) == CellEmpty {
				continue
			}
			joined := -1
			for i := range boxes {
				if boxes[i].near(x, y, g.cfg.AiClusterGap) {
					if joined == -1 {
						boxes[i].extend(x, y)
						joined = i
					} else {
						// Stone bridges two boxes: merge them.
						boxes[joined].extend(boxes[i].minX, boxes[i].minY)
						boxes[joined].extend(boxes[i].maxX, boxes[i].maxY)
						boxes = append(boxes[:i], boxes[i+1:]...)
						break
					}
				}
			}
			if joined == -1 {
				boxes = append(boxes, boundingBox{minX: x, minY: y, maxX: x, maxY: y})
			}
		}
	}

	pad := g.cfg.AiClusterPadding
	marked := make([]bool, size*size)
	var moves []Move
	for _, box := range boxes {
		minX, minY := box.minX-pad, box.minY-pad
		maxX, maxY := box.maxX+pad, box.maxY+pad
		if minX < 0 {
			minX = 0
		}
		if minY < 0 {
			minY = 0
		}
		if maxX >= size {
			maxX = size - 1
		}
		if maxY >= size {
			maxY = size - 1
		}
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				if board.At(x, y) != CellEmpty {
					continue
				}
				idx := y*size + x
				if marked[idx] {
					continue
				}
				marked[idx] = true
				moves = append(moves, Move{X: x, Y: y})
			}
		}
	}
	return moves
}

// CriticalMoves returns the forced moves at this node: placements that win
// outright for player (five or capture threshold), placements that deny the
// opponent such a win, and captures that break an opponent five already on
// the board. These bypass windowing entirely.
func (g MoveGenerator) CriticalMoves(state *GameState, player PlayerColor, candidates []Move) (winning, blocking []Move) {
	opponent := otherPlayer(player)
	for _, move := range candidates {
		if !state.Board.IsEmpty(move.X, move.Y) {
			continue
		}
		if g.winsImmediately(state, move, player) {
			winning = append(winning, move)
		}
		if g.winsImmediately(state, move, opponent) {
			blocking = append(blocking, move)
		}
	}
	if state.HasLastMove && state.Board.At(state.LastMove.X, state.LastMove.Y) == CellFromPlayer(opponent) {
		if g.rules.IsWin(state.Board, state.LastMove, opponent) {
			blocking = append(blocking, g.rules.BreakCaptures(state, player)...)
		}
	}
	return winning, blocking
}

func (g MoveGenerator) winsImmediately(state *GameState, move Move, player PlayerColor) bool {
	if legal, _ := g.rules.IsLegal(state, move, player); !legal {
		return false
	}
	undo := g.rules.ApplyMove(state, move, player)
	won := g.rules.CheckTerminal(state, move, player)
	g.rules.UndoMove(state, undo)
	return won
}

// pickWinningMove ranks the immediately winning moves. A capture win stands
// no matter what the opponent does, while a fresh five can still be broken
// by capturing a pair on its line, so capture wins come first and fives the
// opponent cannot break beat fives they can.
func (g MoveGenerator) pickWinningMove(state *GameState, player PlayerColor, winning []Move) Move {
	opponent := otherPlayer(player)
	best := winning[0]
	bestRank := -1
	for _, move := range winning {
		undo := g.rules.ApplyMove(state, move, player)
		rank := 0
		switch {
		case state.Captured(player) >= g.rules.settings.CaptureWinStones:
			rank = 2
		case !g.rules.BreakableByCapture(state, opponent):
			rank = 1
		}
		g.rules.UndoMove(state, undo)
		if rank > bestRank {
			best, bestRank = move, rank
			if bestRank == 2 {
				break
			}
		}
	}
	return best
}

// orderingContext carries the search-side ordering aids into the generator.
type orderingContext struct {
	pv           Move
	hasPV        bool
	killers      []Move
	historyBonus func(Move) float64
}

// OrderMoves builds the final best-first candidate list for player. Two or
// more blocking cells mean the opponent holds a double threat no single
// reply can answer except a block, so blocking moves crowd out everything
// else.
func (g MoveGenerator) OrderMoves(state *GameState, player PlayerColor, ctx orderingContext) []Move {
	candidates := g.RelevantMoves(state.Board)
	winning, blocking := g.CriticalMoves(state, player, candidates)

	if len(winning) > 0 {
		return []Move{g.pickWinningMove(state, player, winning)}
	}
	if len(blocking) >= 2 {
		return dedupMoves(blocking)
	}

	blockingSet := make(map[Move]struct{}, len(blocking))
	for _, move := range blocking {
		blockingSet[move] = struct{}{}
		candidates = append(candidates, move)
	}
	candidates = dedupMoves(candidates)

	scored := make([]scoredMove, 0, len(candidates))
	for _, move := range candidates {
		if legal, _ := g.rules.IsLegal(state, move, player); !legal {
			continue
		}
		sm := scoredMove{move: move}
		if _, ok := blockingSet[move]; ok {
			sm.tier = tierBlocking
			sm.score = g.cfg.Heuristics.PendingWin
		} else {
			sm.score = g.staticMoveScore(state, move, player)
			switch {
			case sm.score >= g.cfg.Heuristics.OpenThree:
				sm.tier = tierHigh
			case sm.score >= g.cfg.Heuristics.OpenTwo:
				sm.tier = tierMid
			default:
				sm.tier = tierLow
			}
		}
		for _, killer := range ctx.killers {
			if killer.Equals(move) {
				sm.score += g.cfg.AiKillerBoost
			}
		}
		if ctx.historyBonus != nil {
			sm.score += ctx.historyBonus(move) * g.cfg.AiHistoryBoost
		}
		scored = append(scored, sm)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].tier != scored[j].tier {
			return scored[i].tier < scored[j].tier
		}
		return scored[i].score > scored[j].score
	})

	limit := g.candidateCap(state.Board)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	moves := make([]Move, 0, len(scored))
	for _, sm := range scored {
		moves = append(moves, sm.move)
	}
	if ctx.hasPV {
		for i, move := range moves {
			if move.Equals(ctx.pv) {
				copy(moves[1:i+1], moves[:i])
				moves[0] = ctx.pv
				break
			}
		}
	}
	return moves
}

// staticMoveScore simulates the placement and scores the mover's local
// gain against what it concedes, plus the capture haul. Ordering only, so
// the simulation stays local to the four lines through the move.
func (g MoveGenerator) staticMoveScore(state *GameState, move Move, player PlayerColor) float64 {
	opponent := otherPlayer(player)
	undo := g.rules.ApplyMove(state, move, player)
	offense := float64(len(undo.Captured)) * g.cfg.Heuristics.CaptureScore
	offense += g.eval.ScoreLinesAt(state.Board, move.X, move.Y, player, g.eval.isCritical(state.Captured(player)))
	g.rules.UndoMove(state, undo)

	// What the opponent would make of the same cell, so purely defensive
	// moves rank even when they build nothing for the mover.
	oppUndo := g.rules.ApplyMove(state, move, opponent)
	denied := float64(len(oppUndo.Captured)) * g.cfg.Heuristics.CaptureScore
	denied += g.eval.ScoreLinesAt(state.Board, move.X, move.Y, opponent, g.eval.isCritical(state.Captured(opponent)))
	g.rules.UndoMove(state, oppUndo)

	return offense + denied
}

func (g MoveGenerator) candidateCap(board Board) int {
	stones := board.CountStones()
	switch {
	case stones <= g.cfg.AiEarlyPhaseStones:
		return g.cfg.AiCandidateCapEarly
	case stones <= g.cfg.AiMidPhaseStones:
		return g.cfg.AiCandidateCapMid
	default:
		return g.cfg.AiCandidateCapLate
	}
}

func dedupMoves(moves []Move) []Move {
	seen := make(map[Move]struct{}, len(moves))
	out := moves[:0]
	for _, move := range moves {
		if _, ok := seen[move]; ok {
			continue
		}
		seen[move] = struct{}{}
		out = append(out, move)
	}
	return out
}
