package main

import "sync"

// GameController serializes access to the single active game from the HTTP
// handlers, the websocket hub and the tick loop.
type GameController struct {
	mu   sync.Mutex
	game Game
}

func NewGameController(settings GameSettings) *GameController {
	return &GameController{game: NewGame(settings)}
}

func (gc *GameController) SetFinishedHook(hook func(*Game)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.SetFinishedHook(hook)
}

func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.game.CurrentPlayerIsHuman() {
		return false, "not human turn"
	}
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) OnCellClicked(x, y int) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	_ = gc.game.SubmitHumanMove(Move{X: x, Y: y})
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Tick()
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.settings
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) WinReason() string {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.WinReason()
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAtMs()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	history := gc.game.History()
	if history.Size() == 0 {
		return HistoryEntry{}, false
	}
	entries := history.All()
	return entries[len(entries)-1], true
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

// CheckMoveLegality answers hover checks from the UI without mutating the
// visible game: it runs against a clone of the live state.
func (gc *GameController) CheckMoveLegality(move Move) (bool, IllegalReason) {
	gc.mu.Lock()
	state := gc.game.State()
	rules := gc.game.rules
	gc.mu.Unlock()
	return rules.IsLegalDefault(&state, move)
}

func (gc *GameController) Reset(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	hook := gc.game.onFinished
	gc.game.Reset(settings)
	gc.game.SetFinishedHook(hook)
}

func (gc *GameController) StartGame(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	hook := gc.game.onFinished
	gc.game.Reset(settings)
	gc.game.SetFinishedHook(hook)
	gc.game.Start()
}

func (gc *GameController) UpdateSettings(update GameSettings, reset bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if reset {
		hook := gc.game.onFinished
		gc.game.Reset(update)
		gc.game.SetFinishedHook(hook)
		return
	}
	gc.game.settings = update
	gc.game.createPlayers()
}

func (gc *GameController) ResetForConfigChange() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.ResetForConfigChange()
}
