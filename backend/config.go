package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// HeuristicWeights are the pattern magnitudes used by the evaluator. Win
// must stay strictly above any reachable heuristic sum; the search depends
// on that ordering to tell a proven win from a merely dominant position.
type HeuristicWeights struct {
	Win                float64 `json:"win" mapstructure:"win"`
	PendingWin         float64 `json:"pending_win" mapstructure:"pending_win"`
	OpenFour           float64 `json:"open_four" mapstructure:"open_four"`
	BrokenFour         float64 `json:"broken_four" mapstructure:"broken_four"`
	ClosedFour         float64 `json:"closed_four" mapstructure:"closed_four"`
	CaptureThreat      float64 `json:"capture_threat" mapstructure:"capture_threat"`
	OpenThree          float64 `json:"open_three" mapstructure:"open_three"`
	ClosedThree        float64 `json:"closed_three" mapstructure:"closed_three"`
	BrokenThree        float64 `json:"broken_three" mapstructure:"broken_three"`
	CaptureBridge      float64 `json:"capture_bridge" mapstructure:"capture_bridge"`
	OpenTwo            float64 `json:"open_two" mapstructure:"open_two"`
	ClosedTwo          float64 `json:"closed_two" mapstructure:"closed_two"`
	CaptureScore       float64 `json:"capture_score" mapstructure:"capture_score"`
	VulnerablePenalty  float64 `json:"vulnerable_penalty" mapstructure:"vulnerable_penalty"`
	VulnerableCritical float64 `json:"vulnerable_critical" mapstructure:"vulnerable_critical"`
}

type Config struct {
	ListenAddr  string `json:"listen_addr" mapstructure:"listen_addr"`
	ArchivePath string `json:"archive_path" mapstructure:"archive_path"`
	Debug       bool   `json:"debug" mapstructure:"debug"`

	BoardSize              int  `json:"board_size" mapstructure:"board_size"`
	CaptureWinStones       int  `json:"capture_win_stones" mapstructure:"capture_win_stones"`
	ForbidDoubleThreeBlack bool `json:"forbid_double_three_black" mapstructure:"forbid_double_three_black"`
	ForbidDoubleThreeWhite bool `json:"forbid_double_three_white" mapstructure:"forbid_double_three_white"`

	AiMaxDepth          int `json:"ai_max_depth" mapstructure:"ai_max_depth"`
	AiTimeBudgetMs      int `json:"ai_time_budget_ms" mapstructure:"ai_time_budget_ms"`
	AiTimeoutCheckPlies int `json:"ai_timeout_check_plies" mapstructure:"ai_timeout_check_plies"`

	AiRelevanceRadius  int `json:"ai_relevance_radius" mapstructure:"ai_relevance_radius"`
	AiClusterMinStones int `json:"ai_cluster_min_stones" mapstructure:"ai_cluster_min_stones"`
	AiClusterGap       int `json:"ai_cluster_gap" mapstructure:"ai_cluster_gap"`
	AiClusterPadding   int `json:"ai_cluster_padding" mapstructure:"ai_cluster_padding"`

	AiCandidateCapEarly int `json:"ai_candidate_cap_early" mapstructure:"ai_candidate_cap_early"`
	AiCandidateCapMid   int `json:"ai_candidate_cap_mid" mapstructure:"ai_candidate_cap_mid"`
	AiCandidateCapLate  int `json:"ai_candidate_cap_late" mapstructure:"ai_candidate_cap_late"`
	AiEarlyPhaseStones  int `json:"ai_early_phase_stones" mapstructure:"ai_early_phase_stones"`
	AiMidPhaseStones    int `json:"ai_mid_phase_stones" mapstructure:"ai_mid_phase_stones"`

	AiEnableNullMove    bool `json:"ai_enable_null_move" mapstructure:"ai_enable_null_move"`
	AiNullMoveReduction int  `json:"ai_null_move_reduction" mapstructure:"ai_null_move_reduction"`
	AiEnableLMR         bool `json:"ai_enable_lmr" mapstructure:"ai_enable_lmr"`
	AiLmrFullDepthMoves int  `json:"ai_lmr_full_depth_moves" mapstructure:"ai_lmr_full_depth_moves"`
	AiLmrMinDepth       int  `json:"ai_lmr_min_depth" mapstructure:"ai_lmr_min_depth"`
	AiLmrReduction      int  `json:"ai_lmr_reduction" mapstructure:"ai_lmr_reduction"`

	AiEnableKillers bool    `json:"ai_enable_killers" mapstructure:"ai_enable_killers"`
	AiEnableHistory bool    `json:"ai_enable_history" mapstructure:"ai_enable_history"`
	AiKillerBoost   float64 `json:"ai_killer_boost" mapstructure:"ai_killer_boost"`
	AiHistoryBoost  float64 `json:"ai_history_boost" mapstructure:"ai_history_boost"`

	AiTtEntries    int `json:"ai_tt_entries" mapstructure:"ai_tt_entries"`
	AiTtBucketSize int `json:"ai_tt_bucket_size" mapstructure:"ai_tt_bucket_size"`

	Heuristics HeuristicWeights `json:"heuristics" mapstructure:"heuristics"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":8080",
		ArchivePath: "data/games.db",
		Debug:       false,

		BoardSize:              15,
		CaptureWinStones:       10,
		ForbidDoubleThreeBlack: true,
		ForbidDoubleThreeWhite: true,

		AiMaxDepth:          10,
		AiTimeBudgetMs:      500,
		AiTimeoutCheckPlies: 4,

		AiRelevanceRadius:  2,
		AiClusterMinStones: 12,
		AiClusterGap:       4,
		AiClusterPadding:   2,

		AiCandidateCapEarly: 40,
		AiCandidateCapMid:   25,
		AiCandidateCapLate:  15,
		AiEarlyPhaseStones:  10,
		AiMidPhaseStones:    30,

		AiEnableNullMove:    true,
		AiNullMoveReduction: 3,
		AiEnableLMR:         true,
		AiLmrFullDepthMoves: 4,
		AiLmrMinDepth:       3,
		AiLmrReduction:      1,

		AiEnableKillers: true,
		AiEnableHistory: true,
		AiKillerBoost:   50000,
		AiHistoryBoost:  1,

		AiTtEntries:    1 << 18,
		AiTtBucketSize: 4,

		Heuristics: HeuristicWeights{
			Win:                1_000_000_000,
			PendingWin:         50_000_000,
			OpenFour:           1_000_000,
			BrokenFour:         400_000,
			ClosedFour:         50_000,
			CaptureThreat:      30_000,
			OpenThree:          10_000,
			ClosedThree:        5_000,
			BrokenThree:        4_000,
			CaptureBridge:      1_000,
			OpenTwo:            100,
			ClosedTwo:          10,
			CaptureScore:       2_500,
			VulnerablePenalty:  2_000,
			VulnerableCritical: 400_000,
		},
	}
}

func (c Config) GameSettings() GameSettings {
	settings := DefaultGameSettings()
	settings.BoardSize = c.BoardSize
	settings.CaptureWinStones = c.CaptureWinStones
	settings.ForbidDoubleThreeBlack = c.ForbidDoubleThreeBlack
	settings.ForbidDoubleThreeWhite = c.ForbidDoubleThreeWhite
	return settings
}

func (c Config) Validate() error {
	if c.BoardSize < 5 || c.BoardSize > 32 {
		return fmt.Errorf("board_size %d out of range [5,32]", c.BoardSize)
	}
	if c.CaptureWinStones <= 0 || c.CaptureWinStones%2 != 0 {
		return fmt.Errorf("capture_win_stones %d must be a positive even number", c.CaptureWinStones)
	}
	if c.AiMaxDepth < 1 {
		return fmt.Errorf("ai_max_depth %d must be at least 1", c.AiMaxDepth)
	}
	if c.AiTtEntries&(c.AiTtEntries-1) != 0 {
		return fmt.Errorf("ai_tt_entries %d must be a power of two", c.AiTtEntries)
	}
	if c.Heuristics.Win <= c.Heuristics.PendingWin {
		return fmt.Errorf("heuristics.win must exceed heuristics.pending_win")
	}
	return nil
}

type ConfigStore struct {
	mu  sync.RWMutex
	cfg Config
}

var configStore = &ConfigStore{cfg: DefaultConfig()}

func GetConfig() Config {
	configStore.mu.RLock()
	defer configStore.mu.RUnlock()
	return configStore.cfg
}

func (s *ConfigStore) Update(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// LoadConfig resolves the effective configuration: defaults, then the YAML
// file at path (optional), then GOMOKU_* environment overrides.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setConfigDefaults(v, DefaultConfig())
	v.SetEnvPrefix("GOMOKU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setConfigDefaults(v *viper.Viper, def Config) {
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("archive_path", def.ArchivePath)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("board_size", def.BoardSize)
	v.SetDefault("capture_win_stones", def.CaptureWinStones)
	v.SetDefault("forbid_double_three_black", def.ForbidDoubleThreeBlack)
	v.SetDefault("forbid_double_three_white", def.ForbidDoubleThreeWhite)
	v.SetDefault("ai_max_depth", def.AiMaxDepth)
	v.SetDefault("ai_time_budget_ms", def.AiTimeBudgetMs)
	v.SetDefault("ai_timeout_check_plies", def.AiTimeoutCheckPlies)
	v.SetDefault("ai_relevance_radius", def.AiRelevanceRadius)
	v.SetDefault("ai_cluster_min_stones", def.AiClusterMinStones)
	v.SetDefault("ai_cluster_gap", def.AiClusterGap)
	v.SetDefault("ai_cluster_padding", def.AiClusterPadding)
	v.SetDefault("ai_candidate_cap_early", def.AiCandidateCapEarly)
	v.SetDefault("ai_candidate_cap_mid", def.AiCandidateCapMid)
	v.SetDefault("ai_candidate_cap_late", def.AiCandidateCapLate)
	v.SetDefault("ai_early_phase_stones", def.AiEarlyPhaseStones)
	v.SetDefault("ai_mid_phase_stones", def.AiMidPhaseStones)
	v.SetDefault("ai_enable_null_move", def.AiEnableNullMove)
	v.SetDefault("ai_null_move_reduction", def.AiNullMoveReduction)
	v.SetDefault("ai_enable_lmr", def.AiEnableLMR)
	v.SetDefault("ai_lmr_full_depth_moves", def.AiLmrFullDepthMoves)
	v.SetDefault("ai_lmr_min_depth", def.AiLmrMinDepth)
	v.SetDefault("ai_lmr_reduction", def.AiLmrReduction)
	v.SetDefault("ai_enable_killers", def.AiEnableKillers)
	v.SetDefault("ai_enable_history", def.AiEnableHistory)
	v.SetDefault("ai_killer_boost", def.AiKillerBoost)
	v.SetDefault("ai_history_boost", def.AiHistoryBoost)
	v.SetDefault("ai_tt_entries", def.AiTtEntries)
	v.SetDefault("ai_tt_bucket_size", def.AiTtBucketSize)
	v.SetDefault("heuristics.win", def.Heuristics.Win)
	v.SetDefault("heuristics.pending_win", def.Heuristics.PendingWin)
	v.SetDefault("heuristics.open_four", def.Heuristics.OpenFour)
	v.SetDefault("heuristics.broken_four", def.Heuristics.BrokenFour)
	v.SetDefault("heuristics.closed_four", def.Heuristics.ClosedFour)
	v.SetDefault("heuristics.capture_threat", def.Heuristics.CaptureThreat)
	v.SetDefault("heuristics.open_three", def.Heuristics.OpenThree)
	v.SetDefault("heuristics.closed_three", def.Heuristics.ClosedThree)
	v.SetDefault("heuristics.broken_three", def.Heuristics.BrokenThree)
	v.SetDefault("heuristics.capture_bridge", def.Heuristics.CaptureBridge)
	v.SetDefault("heuristics.open_two", def.Heuristics.OpenTwo)
	v.SetDefault("heuristics.closed_two", def.Heuristics.ClosedTwo)
	v.SetDefault("heuristics.capture_score", def.Heuristics.CaptureScore)
	v.SetDefault("heuristics.vulnerable_penalty", def.Heuristics.VulnerablePenalty)
	v.SetDefault("heuristics.vulnerable_critical", def.Heuristics.VulnerableCritical)
}
