package main

type PlayerColor int

type GameStatus int

const (
	PlayerBlack PlayerColor = iota
	PlayerWhite
)

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusBlackWon
	StatusWhiteWon
	StatusDraw
)

// GameState bundles everything the rules and the search mutate together:
// the board, the capture counts (in stones, not pairs) and the incremental
// position hash. Search works on a clone and restores it move by move.
type GameState struct {
	Board              Board
	ToMove             PlayerColor
	Status             GameStatus
	HasLastMove        bool
	LastMove           Move
	CapturedBlack      int
	CapturedWhite      int
	Hash               uint64
	MustCapture        bool
	ForcedCaptureMoves []Move
	LastMessage        string
	WinningLine        []Move
	WinningCapturePair []Move
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	s.Board = NewBoard(settings.BoardSize)
	if settings.BlackStarts {
		s.ToMove = PlayerBlack
	} else {
		s.ToMove = PlayerWhite
	}
	s.Status = StatusNotStarted
	s.HasLastMove = false
	s.LastMove = Move{X: -1, Y: -1}
	s.CapturedBlack = 0
	s.CapturedWhite = 0
	s.Hash = 0
	s.MustCapture = false
	s.ForcedCaptureMoves = nil
	s.LastMessage = ""
	s.WinningLine = nil
	s.WinningCapturePair = nil
	s.recomputeHash()
}

func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Clone()
	clone.ForcedCaptureMoves = append([]Move(nil), s.ForcedCaptureMoves...)
	clone.WinningLine = append([]Move(nil), s.WinningLine...)
	clone.WinningCapturePair = append([]Move(nil), s.WinningCapturePair...)
	return clone
}

func (s GameState) Captured(player PlayerColor) int {
	if player == PlayerBlack {
		return s.CapturedBlack
	}
	return s.CapturedWhite
}

func (s *GameState) addCaptured(player PlayerColor, stones int) {
	if player == PlayerBlack {
		s.CapturedBlack += stones
	} else {
		s.CapturedWhite += stones
	}
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

func playerToInt(player PlayerColor) int {
	if player == PlayerBlack {
		return 1
	}
	return 2
}

func (s *GameState) recomputeHash() {
	s.Hash = ComputeHash(*s)
}
