package main

import (
	"math"
	"time"
)

type SearchStats struct {
	Nodes         int64
	TTHits        int64
	TTStores      int64
	Cutoffs       int64
	NullCutoffs   int64
	LMRReSearches int64
	DepthReached  int
	TimedOut      bool
	Elapsed       time.Duration
}

type SearchResult struct {
	Move    Move
	HasMove bool
	Score   float64
	Depth   int
	Elapsed time.Duration
	Stats   SearchStats
}

// searchContext is the per-decision working set: the transposition table,
// killer and history tables, the deadline and the counters. It is built
// fresh (tables cleared) for every top-level decision and never shared
// between concurrent searches.
type searchContext struct {
	rules     Rules
	eval      Evaluator
	gen       MoveGenerator
	cfg       Config
	tt        *TranspositionTable
	maxPlayer PlayerColor

	killers     [][2]Move
	killerUsed  [][2]bool
	history     []float64
	boardSize   int
	deadline    time.Time
	hasDeadline bool
	stopped     bool
	stats       SearchStats
}

func newSearchContext(rules Rules, eval Evaluator, cfg Config, tt *TranspositionTable) *searchContext {
	return &searchContext{
		rules: rules,
		eval:  eval,
		gen:   NewMoveGenerator(rules, eval, cfg),
		cfg:   cfg,
		tt:    tt,
	}
}

// Decide runs iterative deepening for player and returns the best move of
// the last fully completed depth. The transposition, killer and history
// tables are cleared first: capture-state changes between turns invalidate
// stale entries, and a full clear is the only cheap way to drop them all.
// Each deepening iteration then advances the table generation, so entries
// untouched since early iterations age into replacement victims.
func (ctx *searchContext) Decide(state *GameState, player PlayerColor) SearchResult {
	start := time.Now()
	ctx.maxPlayer = player
	ctx.boardSize = state.Board.Size()
	ctx.history = make([]float64, ctx.boardSize*ctx.boardSize)
	ctx.killers = nil
	ctx.killerUsed = nil
	ctx.stopped = false
	ctx.stats = SearchStats{}
	if ctx.tt != nil {
		ctx.tt.Clear()
	}
	if ctx.cfg.AiTimeBudgetMs > 0 {
		ctx.deadline = start.Add(time.Duration(ctx.cfg.AiTimeBudgetMs) * time.Millisecond)
		ctx.hasDeadline = true
	} else {
		ctx.hasDeadline = false
	}

	rootScore := ctx.eval.EvaluateBoard(state, player)

	var result SearchResult
	for depth := 1; depth <= ctx.cfg.AiMaxDepth; depth++ {
		if ctx.tt != nil && depth > 1 {
			ctx.tt.NextGeneration()
		}
		move, score, completed := ctx.searchRoot(state, depth, rootScore, result)
		if !completed {
			ctx.stats.TimedOut = true
			break
		}
		result = SearchResult{Move: move, HasMove: true, Score: score, Depth: depth}
		ctx.stats.DepthReached = depth
		if score >= ctx.cfg.Heuristics.Win/2 || score <= -ctx.cfg.Heuristics.Win/2 {
			break
		}
		if ctx.timedOut() {
			ctx.stats.TimedOut = true
			break
		}
	}

	if !result.HasMove {
		if move, ok := ctx.rules.FirstLegalMove(state, player); ok {
			result.Move = move
			result.HasMove = true
			result.Depth = 0
		}
	}
	result.Move.Depth = result.Depth
	ctx.stats.Elapsed = time.Since(start)
	result.Elapsed = ctx.stats.Elapsed
	result.Stats = ctx.stats
	return result
}

// searchRoot is the maximizing root node for one depth. It reports
// completed=false when the budget expired mid-depth; the caller must then
// discard the partial result and keep the previous depth's move.
func (ctx *searchContext) searchRoot(state *GameState, depth int, rootScore float64, previous SearchResult) (Move, float64, bool) {
	player := ctx.maxPlayer
	ordering := orderingContext{
		killers:      ctx.killersAt(0),
		historyBonus: ctx.historyBonus,
	}
	if previous.HasMove {
		ordering.pv = previous.Move
		ordering.hasPV = true
	}

	var moves []Move
	if state.MustCapture && len(state.ForcedCaptureMoves) > 0 {
		moves = append(moves, state.ForcedCaptureMoves...)
	} else {
		moves = ctx.gen.OrderMoves(state, player, ordering)
	}
	if len(moves) == 0 {
		return Move{}, 0, false
	}

	alpha := math.Inf(-1)
	beta := math.Inf(1)
	best := math.Inf(-1)
	var bestMove Move
	hasBest := false

	for _, move := range moves {
		score, ok := ctx.scoreMoveAt(state, move, player, depth, alpha, beta, true, rootScore, 0)
		if !ok {
			return bestMove, best, false
		}
		if !hasBest || score > best {
			best = score
			bestMove = move
			hasBest = true
		}
		if best > alpha {
			alpha = best
		}
	}
	return bestMove, best, hasBest
}

// scoreMoveAt applies one move, scores the subtree under it, and undoes
// it. Returns ok=false when the search was stopped mid-subtree.
func (ctx *searchContext) scoreMoveAt(state *GameState, move Move, player PlayerColor, depth int, alpha, beta float64, maximizing bool, runningScore float64, ply int) (float64, bool) {
	prevCaptured := state.Captured(player)
	before := ctx.eval.DeltaParts(state.Board, move.X, move.Y, player, false, false)
	undo := ctx.rules.ApplyMove(state, move, player)
	defer ctx.rules.UndoMove(state, undo)

	if ctx.rules.CheckTerminal(state, move, player) {
		score := ctx.cfg.Heuristics.Win + float64(depth)
		if !maximizing {
			score = -score
		}
		return score, true
	}

	after := ctx.eval.DeltaParts(state.Board, move.X, move.Y, player, false, false)
	delta := ctx.eval.Delta(before, after, prevCaptured, state.Captured(player))
	// Delta is from the mover's perspective: it raises the running score
	// when the maximizer moves and lowers it when the minimizer does.
	newRunning := runningScore + delta
	if !maximizing {
		newRunning = runningScore - delta
	}

	score := ctx.search(state, depth-1, alpha, beta, !maximizing, newRunning, ply+1, true)
	if ctx.stopped {
		return 0, false
	}
	return score, true
}

func (ctx *searchContext) search(state *GameState, depth int, alpha, beta float64, maximizing bool, runningScore float64, ply int, canNull bool) float64 {
	ctx.stats.Nodes++

	checkEvery := ctx.cfg.AiTimeoutCheckPlies
	if checkEvery <= 0 {
		checkEvery = 4
	}
	if ply%checkEvery == 0 && ctx.timedOut() {
		ctx.stopped = true
		return runningScore
	}

	key := ttKeyFor(state.Hash, state.CapturedBlack, state.CapturedWhite)
	if ctx.tt != nil {
		if entry, ok := ctx.tt.Probe(key); ok && entry.Depth >= depth {
			ctx.stats.TTHits++
			switch entry.Flag {
			case TTExact:
				return entry.Score
			case TTLower:
				if entry.Score > alpha {
					alpha = entry.Score
				}
			case TTUpper:
				if entry.Score < beta {
					beta = entry.Score
				}
			}
			if alpha >= beta {
				return entry.Score
			}
		}
	}

	if depth <= 0 {
		return runningScore
	}

	mover := ctx.maxPlayer
	if !maximizing {
		mover = otherPlayer(ctx.maxPlayer)
	}

	if ctx.cfg.AiEnableNullMove && canNull && depth > ctx.cfg.AiNullMoveReduction+1 && !ctx.positionCritical(state) {
		if score, cut := ctx.tryNullMove(state, depth, alpha, beta, maximizing, runningScore, ply); cut {
			ctx.stats.NullCutoffs++
			return score
		}
		if ctx.stopped {
			return runningScore
		}
	}

	ordering := orderingContext{
		killers:      ctx.killersAt(ply),
		historyBonus: ctx.historyBonus,
	}
	moves := ctx.gen.OrderMoves(state, mover, ordering)
	if len(moves) == 0 {
		return runningScore
	}

	alphaOrig := alpha
	betaOrig := beta
	best := math.Inf(-1)
	if !maximizing {
		best = math.Inf(1)
	}
	var bestMove Move

	for i, move := range moves {
		prevCaptured := state.Captured(mover)
		before := ctx.eval.DeltaParts(state.Board, move.X, move.Y, mover, false, false)
		undo := ctx.rules.ApplyMove(state, move, mover)

		var score float64
		if ctx.rules.CheckTerminal(state, move, mover) {
			score = ctx.cfg.Heuristics.Win + float64(depth)
			if !maximizing {
				score = -score
			}
		} else {
			after := ctx.eval.DeltaParts(state.Board, move.X, move.Y, mover, false, false)
			delta := ctx.eval.Delta(before, after, prevCaptured, state.Captured(mover))
			newRunning := runningScore + delta
			if !maximizing {
				newRunning = runningScore - delta
			}

			reduction := 0
			if ctx.cfg.AiEnableLMR && depth >= ctx.cfg.AiLmrMinDepth && i >= ctx.cfg.AiLmrFullDepthMoves {
				reduction = ctx.cfg.AiLmrReduction
			}
			score = ctx.search(state, depth-1-reduction, alpha, beta, !maximizing, newRunning, ply+1, true)
			if reduction > 0 && !ctx.stopped {
				// Verify a reduced move that looks better than expected at
				// full depth before trusting it.
				improved := (maximizing && score > alpha) || (!maximizing && score < beta)
				if improved {
					ctx.stats.LMRReSearches++
					score = ctx.search(state, depth-1, alpha, beta, !maximizing, newRunning, ply+1, true)
				}
			}
		}

		ctx.rules.UndoMove(state, undo)
		if ctx.stopped {
			return runningScore
		}

		if maximizing {
			if score > best {
				best = score
				bestMove = move
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
				bestMove = move
			}
			if best < beta {
				beta = best
			}
		}
		if alpha >= beta {
			ctx.stats.Cutoffs++
			ctx.recordCutoff(move, ply, depth)
			break
		}
	}

	if ctx.tt != nil {
		flag := TTExact
		if best <= alphaOrig {
			flag = TTUpper
		} else if best >= betaOrig {
			flag = TTLower
		}
		ctx.tt.Store(key, depth, best, flag, bestMove)
		ctx.stats.TTStores++
	}
	return best
}

// tryNullMove hands the opponent a free move at reduced depth. If the
// position still fails high (low, for the minimizer) the subtree cannot
// matter and is pruned. Never tried twice in a row, and never in critical
// positions where passing changes forced tactics.
func (ctx *searchContext) tryNullMove(state *GameState, depth int, alpha, beta float64, maximizing bool, runningScore float64, ply int) (float64, bool) {
	z := GetZobrist(state.Board.Size())
	prevToMove := state.ToMove
	state.ToMove = otherPlayer(state.ToMove)
	state.Hash ^= z.side
	reduced := depth - 1 - ctx.cfg.AiNullMoveReduction

	var score float64
	if maximizing {
		score = ctx.search(state, reduced, beta-1, beta, false, runningScore, ply+1, false)
	} else {
		score = ctx.search(state, reduced, alpha, alpha+1, true, runningScore, ply+1, false)
	}

	state.ToMove = prevToMove
	state.Hash ^= z.side
	if ctx.stopped {
		return 0, false
	}
	if maximizing && score >= beta {
		return score, true
	}
	if !maximizing && score <= alpha {
		return score, true
	}
	return 0, false
}

// positionCritical gates null-move pruning: passing is unsound when either
// side is about to win by captures or a forced capture is pending.
func (ctx *searchContext) positionCritical(state *GameState) bool {
	if state.MustCapture {
		return true
	}
	return ctx.eval.isCritical(state.CapturedBlack) || ctx.eval.isCritical(state.CapturedWhite)
}

func (ctx *searchContext) killersAt(ply int) []Move {
	if !ctx.cfg.AiEnableKillers || ply >= len(ctx.killers) {
		return nil
	}
	out := make([]Move, 0, 2)
	for slot := 0; slot < 2; slot++ {
		if ctx.killerUsed[ply][slot] {
			out = append(out, ctx.killers[ply][slot])
		}
	}
	return out
}

func (ctx *searchContext) recordCutoff(move Move, ply, depth int) {
	if ctx.cfg.AiEnableKillers {
		for ply >= len(ctx.killers) {
			ctx.killers = append(ctx.killers, [2]Move{})
			ctx.killerUsed = append(ctx.killerUsed, [2]bool{})
		}
		if !(ctx.killerUsed[ply][0] && ctx.killers[ply][0].Equals(move)) {
			ctx.killers[ply][1] = ctx.killers[ply][0]
			ctx.killerUsed[ply][1] = ctx.killerUsed[ply][0]
			ctx.killers[ply][0] = move
			ctx.killerUsed[ply][0] = true
		}
	}
	if ctx.cfg.AiEnableHistory {
		idx := move.Y*ctx.boardSize + move.X
		if idx >= 0 && idx < len(ctx.history) {
			ctx.history[idx] += float64(depth * depth)
		}
	}
}

func (ctx *searchContext) historyBonus(move Move) float64 {
	if !ctx.cfg.AiEnableHistory || ctx.history == nil {
		return 0
	}
	idx := move.Y*ctx.boardSize + move.X
	if idx < 0 || idx >= len(ctx.history) {
		return 0
	}
	return ctx.history[idx]
}

func (ctx *searchContext) timedOut() bool {
	return ctx.hasDeadline && time.Now().After(ctx.deadline)
}
