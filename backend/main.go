package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type StatusResponse struct {
	Settings           GameSettingsDTO   `json:"settings"`
	Config             Config            `json:"config"`
	NextPlayer         int               `json:"next_player"`
	Winner             int               `json:"winner"`
	BoardSize          int               `json:"board_size"`
	Status             string            `json:"status"`
	History            []historyEntryDTO `json:"history"`
	WinReason          string            `json:"win_reason"`
	WinningLine        []Move            `json:"winning_line"`
	WinningCapturePair []Move            `json:"winning_capture_pair"`
	CaptureWinStones   int               `json:"capture_win_stones"`
	CapturedBlack      int               `json:"captured_black"`
	CapturedWhite      int               `json:"captured_white"`
	TurnStartedAtMs    int64             `json:"turn_started_at_ms"`
}

type GameSettingsDTO struct {
	Mode        string `json:"mode"`
	HumanPlayer int    `json:"human_player"`
	BoardSize   int    `json:"board_size"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type historyEntryDTO struct {
	X                 int     `json:"x"`
	Y                 int     `json:"y"`
	Player            int     `json:"player"`
	ElapsedMs         float64 `json:"elapsed_ms"`
	IsAi              bool    `json:"is_ai"`
	CapturedCount     int     `json:"captured_count"`
	CapturedPositions []Move  `json:"captured_positions"`
	Depth             int     `json:"depth"`
}

type boardPayload struct {
	Board      [][]int           `json:"board"`
	NextPlayer int               `json:"next_player"`
	Winner     int               `json:"winner"`
	MoveCount  int               `json:"move_count"`
	Status     string            `json:"status"`
	AiThinking bool              `json:"ai_thinking"`
	History    []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	BoardSize int `json:"board_size"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
}

type settingsRequest struct {
	Mode      string `json:"mode"`
	BoardSize int    `json:"board_size"`
	Reset     bool   `json:"reset"`
}

func main() {
	configPath := flag.String("config", os.Getenv("GOMOKU_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		// Config errors precede logger setup, so report them plainly.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := InitLogger(cfg.Debug); err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer SyncLogger()
	configStore.Update(cfg)

	archive, err := OpenGameArchive(cfg.ArchivePath)
	if err != nil {
		Log().Fatalw("open game archive", "error", err)
	}
	defer archive.Close()

	controller := NewGameController(cfg.GameSettings())
	controller.SetFinishedHook(archive.SaveGame)

	hub := NewHub()
	done := make(chan struct{})
	go hub.Run(done)

	go runTickLoop(controller, hub, done)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(zapRequestLogger)

	router.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildStatus(controller))
	})
	router.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var req apiMove
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid payload"})
			return
		}
		move := NewMove(req.X, req.Y)
		if !move.IsValid(controller.Settings().BoardSize) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": ReasonOutOfBounds.String()})
			return
		}
		applied, reason := controller.ApplyHumanMove(move)
		if !applied {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": reason})
			return
		}
		broadcastGame(controller, hub)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Get("/api/legal", func(w http.ResponseWriter, r *http.Request) {
		x, errX := strconv.Atoi(r.URL.Query().Get("x"))
		y, errY := strconv.Atoi(r.URL.Query().Get("y"))
		if errX != nil || errY != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid coordinates"})
			return
		}
		legal, reason := controller.CheckMoveLegality(NewMove(x, y))
		writeJSON(w, http.StatusOK, map[string]any{"legal": legal, "reason": reason.String()})
	})
	router.Post("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		settings := settingsFromConfig(GetConfig(), controller.Settings())
		controller.StartGame(settings)
		hub.NotifyReset(resetPayload{BoardSize: settings.BoardSize})
		broadcastGame(controller, hub)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Get("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settingsDTO(controller.Settings()))
	})
	router.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid payload"})
			return
		}
		settings := controller.Settings()
		if req.BoardSize > 0 {
			settings.BoardSize = req.BoardSize
		}
		if err := applyMode(&settings, req.Mode); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		controller.UpdateSettings(settings, req.Reset)
		hub.NotifySettings(settingsPayload{Settings: settingsDTO(settings)})
		broadcastGame(controller, hub)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetConfig())
	})
	router.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		updated := GetConfig()
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid payload"})
			return
		}
		if err := updated.Validate(); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		configStore.Update(updated)
		controller.ResetForConfigChange()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Get("/api/archive", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		games, err := archive.ListGames(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, games)
	})
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r, func() StatusResponse { return buildStatus(controller) })
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	go func() {
		Log().Infow("server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log().Fatalw("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	Log().Infow("shutting down")
	close(done)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		Log().Warnw("shutdown", "error", err)
	}
}

// runTickLoop advances the game continuously so AI turns progress without
// client polling, broadcasting after every applied move.
func runTickLoop(controller *GameController, hub *Hub, done <-chan struct{}) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if controller.Tick() {
				broadcastGame(controller, hub)
			}
		}
	}
}

func broadcastGame(controller *GameController, hub *Hub) {
	if !hub.HasClients() {
		return
	}
	select {
	case hub.broadcastBoard <- buildBoardPayload(controller):
	default:
	}
	select {
	case hub.broadcastStatus <- buildStatus(controller):
	default:
	}
}

func buildStatus(controller *GameController) StatusResponse {
	state := controller.State()
	settings := controller.Settings()
	return StatusResponse{
		Settings:           settingsDTO(settings),
		Config:             GetConfig(),
		NextPlayer:         playerToInt(state.ToMove),
		Winner:             winnerInt(state.Status),
		BoardSize:          state.Board.Size(),
		Status:             statusString(state.Status),
		History:            historyDTO(controller.History()),
		WinReason:          controller.WinReason(),
		WinningLine:        state.WinningLine,
		WinningCapturePair: state.WinningCapturePair,
		CaptureWinStones:   settings.CaptureWinStones,
		CapturedBlack:      state.CapturedBlack,
		CapturedWhite:      state.CapturedWhite,
		TurnStartedAtMs:    controller.CurrentTurnStartedAtMs(),
	}
}

func buildBoardPayload(controller *GameController) boardPayload {
	state := controller.State()
	size := state.Board.Size()
	board := make([][]int, size)
	for y := 0; y < size; y++ {
		row := make([]int, size)
		for x := 0; x < size; x++ {
			switch state.Board.At(x, y) {
			case CellBlack:
				row[x] = playerToInt(PlayerBlack)
			case CellWhite:
				row[x] = playerToInt(PlayerWhite)
			}
		}
		board[y] = row
	}
	return boardPayload{
		Board:      board,
		NextPlayer: playerToInt(state.ToMove),
		Winner:     winnerInt(state.Status),
		MoveCount:  controller.History().Size(),
		Status:     statusString(state.Status),
		AiThinking: controller.AiThinking(),
		History:    historyDTO(controller.History()),
	}
}

func historyDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	out := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryDTO{
			X:                 entry.Move.X,
			Y:                 entry.Move.Y,
			Player:            playerToInt(entry.Player),
			ElapsedMs:         entry.ElapsedMs,
			IsAi:              entry.IsAi,
			CapturedCount:     entry.CapturedCount,
			CapturedPositions: entry.CapturedPositions,
			Depth:             entry.Depth,
		})
	}
	return out
}

func settingsDTO(settings GameSettings) GameSettingsDTO {
	mode := "hvai"
	humanPlayer := playerToInt(PlayerBlack)
	switch {
	case settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman:
		mode = "hvh"
	case settings.BlackType == PlayerAI && settings.WhiteType == PlayerAI:
		mode = "aivai"
		humanPlayer = 0
	case settings.BlackType == PlayerAI:
		humanPlayer = playerToInt(PlayerWhite)
	}
	return GameSettingsDTO{Mode: mode, HumanPlayer: humanPlayer, BoardSize: settings.BoardSize}
}

func applyMode(settings *GameSettings, mode string) error {
	switch mode {
	case "":
	case "hvai":
		settings.BlackType = PlayerHuman
		settings.WhiteType = PlayerAI
	case "aivh":
		settings.BlackType = PlayerAI
		settings.WhiteType = PlayerHuman
	case "aivai":
		settings.BlackType = PlayerAI
		settings.WhiteType = PlayerAI
	case "hvh":
		settings.BlackType = PlayerHuman
		settings.WhiteType = PlayerHuman
	default:
		return errors.New("unknown mode: " + mode)
	}
	return nil
}

func settingsFromConfig(cfg Config, current GameSettings) GameSettings {
	settings := cfg.GameSettings()
	settings.BlackType = current.BlackType
	settings.WhiteType = current.WhiteType
	settings.BlackStarts = current.BlackStarts
	return settings
}

func statusString(status GameStatus) string {
	switch status {
	case StatusRunning:
		return "running"
	case StatusBlackWon:
		return "black_won"
	case StatusWhiteWon:
		return "white_won"
	case StatusDraw:
		return "draw"
	default:
		return "not_started"
	}
}

func winnerInt(status GameStatus) int {
	switch status {
	case StatusBlackWon:
		return playerToInt(PlayerBlack)
	case StatusWhiteWon:
		return playerToInt(PlayerWhite)
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log().Warnw("write response", "error", err)
	}
}

func zapRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		Log().Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
