package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// benchRunner plays AI-vs-AI games against a running backend and tallies
// outcomes, depths, and think times. It drives the same HTTP API the
// frontend uses, so no game logic is duplicated here.
type benchRunner struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       *log.Logger
	games        int
}

type statusResponse struct {
	Status        string         `json:"status"`
	Winner        int            `json:"winner"`
	WinReason     string         `json:"win_reason"`
	BoardSize     int            `json:"board_size"`
	CapturedBlack int            `json:"captured_black"`
	CapturedWhite int            `json:"captured_white"`
	History       []historyEntry `json:"history"`
}

type historyEntry struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Depth     int     `json:"depth"`
}

type gameResult struct {
	winner    int
	winReason string
	moves     int
	avgDepth  float64
	avgMs     float64
	maxMs     float64
}

func main() {
	games := flag.Int("games", 10, "number of self-play games")
	poll := flag.Duration("poll", 250*time.Millisecond, "status poll interval")
	flag.Parse()

	baseURL := os.Getenv("BACKEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	runner := &benchRunner{
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		pollInterval: *poll,
		logger:       log.New(os.Stdout, "[bench] ", log.LstdFlags),
		games:        *games,
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		runner.logger.Println("interrupted, finishing current game")
		cancel()
	}()

	if err := runner.run(ctx); err != nil {
		runner.logger.Fatalf("benchmark failed: %v", err)
	}
}

func (b *benchRunner) run(ctx context.Context) error {
	if err := b.setMode(ctx, "aivai"); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}

	var results []gameResult
	for i := 0; i < b.games; i++ {
		if ctx.Err() != nil {
			break
		}
		b.logger.Printf("game %d/%d starting", i+1, b.games)
		result, err := b.playGame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		b.logger.Printf("game %d/%d: winner=%d reason=%s moves=%d avg_depth=%.1f avg_ms=%.0f max_ms=%.0f",
			i+1, b.games, result.winner, result.winReason, result.moves,
			result.avgDepth, result.avgMs, result.maxMs)
		results = append(results, result)
	}

	b.report(results)
	return nil
}

func (b *benchRunner) playGame(ctx context.Context) (gameResult, error) {
	if err := b.post(ctx, "/api/reset", nil); err != nil {
		return gameResult{}, fmt.Errorf("reset: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return gameResult{}, ctx.Err()
		case <-time.After(b.pollInterval):
		}

		status, err := b.fetchStatus(ctx)
		if err != nil {
			return gameResult{}, err
		}
		if status.Status == "running" || status.Status == "not_started" {
			continue
		}
		return summarize(status), nil
	}
}

func summarize(status statusResponse) gameResult {
	result := gameResult{
		winner:    status.Winner,
		winReason: status.WinReason,
		moves:     len(status.History),
	}
	var depthSum, msSum float64
	var aiMoves int
	for _, entry := range status.History {
		if !entry.IsAi {
			continue
		}
		aiMoves++
		depthSum += float64(entry.Depth)
		msSum += entry.ElapsedMs
		if entry.ElapsedMs > result.maxMs {
			result.maxMs = entry.ElapsedMs
		}
	}
	if aiMoves > 0 {
		result.avgDepth = depthSum / float64(aiMoves)
		result.avgMs = msSum / float64(aiMoves)
	}
	return result
}

func (b *benchRunner) report(results []gameResult) {
	if len(results) == 0 {
		b.logger.Println("no games completed")
		return
	}
	var blackWins, whiteWins, draws int
	var depthSum, msSum, maxMs float64
	reasons := map[string]int{}
	for _, r := range results {
		switch r.winner {
		case 1:
			blackWins++
		case 2:
			whiteWins++
		default:
			draws++
		}
		depthSum += r.avgDepth
		msSum += r.avgMs
		if r.maxMs > maxMs {
			maxMs = r.maxMs
		}
		if r.winReason != "" {
			reasons[r.winReason]++
		}
	}
	n := float64(len(results))
	b.logger.Printf("summary: games=%d black=%d white=%d draw=%d", len(results), blackWins, whiteWins, draws)
	b.logger.Printf("summary: avg_depth=%.1f avg_move_ms=%.0f max_move_ms=%.0f", depthSum/n, msSum/n, maxMs)
	for reason, count := range reasons {
		b.logger.Printf("summary: win_reason %s=%d", reason, count)
	}
}

func (b *benchRunner) setMode(ctx context.Context, mode string) error {
	payload := map[string]any{"mode": mode, "reset": true}
	return b.post(ctx, "/api/settings", payload)
}

func (b *benchRunner) fetchStatus(ctx context.Context) (statusResponse, error) {
	var status statusResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/status", nil)
	if err != nil {
		return status, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return status, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, err
	}
	return status, nil
}

func (b *benchRunner) post(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, string(raw))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
