package main

import (
	"time"

	"github.com/google/uuid"
)

// Game drives one match: legality, the pending-win flow, history and the
// turn loop over the two players. The search engine never sees this layer;
// inside search a five-in-a-row is terminal, while here a freshly formed
// five can still be broken by a capture before the win is finalized.
type Game struct {
	id          string
	settings    GameSettings
	rules       Rules
	state       GameState
	history     MoveHistory
	blackPlayer IPlayer
	whitePlayer IPlayer
	turnStart   time.Time
	startedAt   time.Time
	winReason   string
	onFinished  func(*Game)
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.id = uuid.NewString()
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.winReason = ""
	g.createPlayers()
	g.turnStart = time.Now()
	g.startedAt = time.Now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status == StatusNotStarted {
		g.state.Status = StatusRunning
		g.turnStart = time.Now()
		g.startedAt = time.Now()
	}
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) WinReason() string {
	return g.winReason
}

func (g *Game) StartedAt() time.Time {
	return g.startedAt
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

func (g *Game) SetFinishedHook(hook func(*Game)) {
	g.onFinished = hook
}

// TryApplyMove validates and applies one move for the side to move,
// resolving captures, capture wins, pending wins and draws.
func (g *Game) TryApplyMove(move Move) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	player := g.state.ToMove
	current := g.playerForColor(player)
	isAiMove := current != nil && !current.IsHuman()

	ok, reason := g.rules.IsLegalDefault(&g.state, move)
	if !ok {
		g.state.LastMessage = "Illegal move: " + reason.String()
		return false, g.state.LastMessage
	}
	g.state.LastMessage = ""
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())

	g.state.MustCapture = false
	g.state.ForcedCaptureMoves = nil
	g.state.WinningLine = nil
	g.state.WinningCapturePair = nil

	undo := g.rules.ApplyMove(&g.state, move, player)
	entry := HistoryEntry{
		Move:              move,
		Player:            player,
		CapturedPositions: append([]Move(nil), undo.Captured...),
		CapturedCount:     len(undo.Captured),
		ElapsedMs:         elapsedMs,
		IsAi:              isAiMove,
		Depth:             move.Depth,
	}
	g.history.Push(entry)
	g.logMovePlayed(entry, g.state.Captured(player))

	if g.state.Captured(player) >= g.settings.CaptureWinStones {
		g.finish(player, "capture")
		g.state.WinningCapturePair = append([]Move(nil), undo.Captured...)
		return true, ""
	}

	opponent := g.state.ToMove
	if line, won := g.rules.CheckWin(g.state.Board, move, player); won {
		breaks := g.rules.BreakCaptures(&g.state, opponent)
		if len(breaks) == 0 {
			g.state.WinningLine = line
			g.finish(player, "alignment")
			return true, ""
		}
		// Pending win: the opponent's next move must break the line.
		g.state.MustCapture = true
		g.state.ForcedCaptureMoves = breaks
	}

	if forcedMove, forcedCaptures, found := g.rules.FindImmediateCaptureWinMove(&g.state, opponent); found {
		// The reply is a forced capture win, so play it out immediately.
		g.rules.ApplyMove(&g.state, forcedMove, opponent)
		forcedEntry := HistoryEntry{
			Move:              forcedMove,
			Player:            opponent,
			CapturedPositions: append([]Move(nil), forcedCaptures...),
			CapturedCount:     len(forcedCaptures),
			IsAi:              !g.playerForColor(opponent).IsHuman(),
		}
		g.history.Push(forcedEntry)
		g.logMovePlayed(forcedEntry, g.state.Captured(opponent))
		g.state.MustCapture = false
		g.state.ForcedCaptureMoves = nil
		g.state.WinningCapturePair = append([]Move(nil), forcedCaptures...)
		g.finish(opponent, "capture-threat")
		return true, ""
	}

	if g.rules.IsDraw(g.state.Board) {
		g.state.Status = StatusDraw
		g.winReason = "draw"
		if g.onFinished != nil {
			g.onFinished(g)
		}
		return true, ""
	}

	g.turnStart = time.Now()
	return true, ""
}

func (g *Game) finish(winner PlayerColor, reason string) {
	if winner == PlayerBlack {
		g.state.Status = StatusBlackWon
	} else {
		g.state.Status = StatusWhiteWon
	}
	g.winReason = reason
	g.logWin(winner, reason)
	if g.onFinished != nil {
		g.onFinished(g)
	}
}

// Tick advances the turn loop one step: applies a pending human move, or
// collects / launches the AI search for the side to move. Returns whether
// a move was applied.
func (g *Game) Tick() bool {
	if g.state.Status != StatusRunning {
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		return false
	}
	if player.IsHuman() {
		human, ok := player.(*HumanPlayer)
		if ok && human.HasPendingMove() {
			move := human.TakePendingMove()
			applied, _ := g.TryApplyMove(move)
			return applied
		}
		return false
	}
	ai, ok := player.(*AIPlayer)
	if !ok {
		move := player.ChooseMove(g.state.Clone(), g.rules)
		applied, _ := g.TryApplyMove(move)
		return applied
	}
	if ai.HasMoveReady() {
		move, _ := ai.TakeMove()
		applied, _ := g.TryApplyMove(move)
		return applied
	}
	if !ai.IsThinking() {
		ai.StartThinking(g.state.Clone(), g.rules)
	}
	return false
}

func (g *Game) SubmitHumanMove(move Move) bool {
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return false
	}
	human, ok := player.(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) AiThinking() bool {
	ai, ok := g.currentPlayer().(*AIPlayer)
	return ok && ai.IsThinking()
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerBlack {
		return g.blackPlayer
	}
	return g.whitePlayer
}

func (g *Game) createPlayers() {
	if g.settings.BlackType == PlayerHuman {
		g.blackPlayer = NewHumanPlayer()
	} else {
		g.blackPlayer = NewAIPlayer()
	}
	if g.settings.WhiteType == PlayerHuman {
		g.whitePlayer = NewHumanPlayer()
	} else {
		g.whitePlayer = NewAIPlayer()
	}
}

func (g *Game) ResetForConfigChange() {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.ResetForConfigChange()
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.ResetForConfigChange()
	}
}

func (g *Game) logMatchup() {
	label := func(t PlayerType) string {
		if t == PlayerAI {
			return "ai"
		}
		return "human"
	}
	Log().Infow("game reset",
		"game_id", g.id,
		"board_size", g.settings.BoardSize,
		"black", label(g.settings.BlackType),
		"white", label(g.settings.WhiteType),
	)
}

func (g *Game) logMovePlayed(entry HistoryEntry, totalCaptured int) {
	Log().Debugw("move played",
		"game_id", g.id,
		"player", CellFromPlayer(entry.Player).String(),
		"x", entry.Move.X,
		"y", entry.Move.Y,
		"is_ai", entry.IsAi,
		"captured", entry.CapturedCount,
		"total_captured", totalCaptured,
		"elapsed_ms", entry.ElapsedMs,
	)
}

func (g *Game) logWin(player PlayerColor, reason string) {
	Log().Infow("game over",
		"game_id", g.id,
		"winner", CellFromPlayer(player).String(),
		"reason", reason,
		"moves", g.history.Size(),
	)
}
