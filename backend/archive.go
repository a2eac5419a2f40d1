package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// GameArchive persists finished games to SQLite so matches survive
// restarts and the trainer can mine them later.
type GameArchive struct {
	db *sql.DB
	wg sync.WaitGroup
}

type ArchivedGame struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	BoardSize   int       `json:"board_size"`
	Winner      int       `json:"winner"`
	WinReason   string    `json:"win_reason"`
	MoveCount   int       `json:"move_count"`
	CapturedB   int       `json:"captured_black"`
	CapturedW   int       `json:"captured_white"`
	MovesJSON   string    `json:"-"`
	SettingsRaw string    `json:"-"`
}

func OpenGameArchive(dbPath string) (*GameArchive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", dbPath, err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		ended_at DATETIME,
		board_size INTEGER,
		winner INTEGER,
		win_reason TEXT,
		move_count INTEGER,
		captured_black INTEGER,
		captured_white INTEGER,
		moves TEXT,
		settings TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	Log().Infow("game archive ready", "path", dbPath)
	return &GameArchive{db: db}, nil
}

func (a *GameArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	a.wg.Wait()
	return a.db.Close()
}

// Flush waits for queued writes to land. Callers that list games right
// after saving one need this; the game loop never does.
func (a *GameArchive) Flush() {
	if a == nil {
		return
	}
	a.wg.Wait()
}

// SaveGame records one finished game. The caller may hold the game lock,
// so only the in-memory snapshot happens here; the insert runs on its own
// goroutine. Errors are logged, not returned: the archive must never block
// or fail the game flow.
func (a *GameArchive) SaveGame(game *Game) {
	if a == nil || a.db == nil {
		return
	}
	record, ok := a.snapshotGame(game)
	if !ok {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.insertGame(record)
	}()
}

func (a *GameArchive) snapshotGame(game *Game) (ArchivedGame, bool) {
	state := game.State()
	winner := 0
	switch state.Status {
	case StatusBlackWon:
		winner = playerToInt(PlayerBlack)
	case StatusWhiteWon:
		winner = playerToInt(PlayerWhite)
	}
	moves, err := json.Marshal(game.History().All())
	if err != nil {
		Log().Warnw("archive: marshal moves", "game_id", game.ID(), "error", err)
		return ArchivedGame{}, false
	}
	settings, err := json.Marshal(game.settings)
	if err != nil {
		Log().Warnw("archive: marshal settings", "game_id", game.ID(), "error", err)
		return ArchivedGame{}, false
	}
	return ArchivedGame{
		ID:          game.ID(),
		StartedAt:   game.StartedAt(),
		EndedAt:     time.Now(),
		BoardSize:   state.Board.Size(),
		Winner:      winner,
		WinReason:   game.WinReason(),
		MoveCount:   game.History().Size(),
		CapturedB:   state.CapturedBlack,
		CapturedW:   state.CapturedWhite,
		MovesJSON:   string(moves),
		SettingsRaw: string(settings),
	}, true
}

func (a *GameArchive) insertGame(record ArchivedGame) {
	_, err := a.db.Exec(
		`INSERT OR REPLACE INTO games
		 (id, started_at, ended_at, board_size, winner, win_reason,
		  move_count, captured_black, captured_white, moves, settings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.StartedAt, record.EndedAt, record.BoardSize,
		record.Winner, record.WinReason, record.MoveCount, record.CapturedB,
		record.CapturedW, record.MovesJSON, record.SettingsRaw,
	)
	if err != nil {
		Log().Warnw("archive: insert game", "game_id", record.ID, "error", err)
		return
	}
	Log().Infow("game archived", "game_id", record.ID, "winner", record.Winner, "reason", record.WinReason)
}

// ListGames returns the most recent games, newest first.
func (a *GameArchive) ListGames(limit int) ([]ArchivedGame, error) {
	if a == nil || a.db == nil {
		return nil, fmt.Errorf("archive not open")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.Query(
		`SELECT id, started_at, ended_at, board_size, winner, win_reason,
		        move_count, captured_black, captured_white
		 FROM games ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()
	var games []ArchivedGame
	for rows.Next() {
		var g ArchivedGame
		if err := rows.Scan(&g.ID, &g.StartedAt, &g.EndedAt, &g.BoardSize, &g.Winner,
			&g.WinReason, &g.MoveCount, &g.CapturedB, &g.CapturedW); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
