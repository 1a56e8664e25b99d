package models

import (
	"github.com/shopspring/decimal"
)

// MarginClass groups margins for narrative purposes
type MarginClass string

// Margin classes
const (
	MarginClose       MarginClass = "close"
	MarginComfortable MarginClass = "comfortable"
	MarginDecisive    MarginClass = "decisive"
	MarginUnknown     MarginClass = "unknown"
)

// Margin is the finishing gap between first and second place
type Margin struct {
	Label   string      `json:"label"`
	Lengths float64     `json:"lengths"` // approximate lengths, -1 when unknown
	Class   MarginClass `json:"class"`
}

// IsClose reports whether the finish was close
func (m *Margin) IsClose() bool {
	return m != nil && m.Class == MarginClose
}

// String returns the margin label
func (m *Margin) String() string {
	if m == nil {
		return ""
	}
	return m.Label
}

// RaceStatistics is derived from a RaceRecord and never mutated once computed
type RaceStatistics struct {
	TotalPrizeMoney decimal.Decimal `json:"totalPrizeMoney"`
	FavoriteWon     bool            `json:"favoriteWon"`
	Margin          *Margin         `json:"margin"`
	FavoriteID      string          `json:"favoriteId,omitempty"`
	WinnerID        string          `json:"winnerId,omitempty"`
	WinningTime     string          `json:"winningTime,omitempty"`
	FinisherCount   int             `json:"finisherCount"`
}

// Analysis is the narrative produced for a single race
type Analysis struct {
	RaceID      string   `json:"raceId"`
	Summary     string   `json:"summary"`
	KeyInsights []string `json:"keyInsights"`
}

// MeetingSummary aggregates statistics over every race of a meeting
type MeetingSummary struct {
	RaceCount         int             `json:"raceCount"`
	CompletedRaces    int             `json:"completedRaces"`
	FavoriteWins      int             `json:"favoriteWins"`
	FavoriteWinRate   float64         `json:"favoriteWinRate"`
	CloseFinishes     int             `json:"closeFinishes"`
	TotalPrizeMoney   decimal.Decimal `json:"totalPrizeMoney"`
	RacesByHippodrome map[string]int  `json:"racesByHippodrome"`
	RacesByType       map[string]int  `json:"racesByType"`
	TopJockeys        []WinCount      `json:"topJockeys"`
	TopTrainers       []WinCount      `json:"topTrainers"`
}

// WinCount is a name with its number of wins on the meeting
type WinCount struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}
