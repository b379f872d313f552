// Package types contains common types used across the application
package types

// Entry represents a ranked leaderboard row.
type Entry struct {
	Rank   int     `json:"rank"`
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// BoardInfo describes one board.
type BoardInfo struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Direction string `json:"direction"`
	PageSize  int    `json:"page_size"`
}
