package models

import (
	"github.com/shopspring/decimal"
)

// NonFinisherPosition is the FinalPosition of a runner that fell, pulled up or was disqualified
const NonFinisherPosition = 0

// HorseResult represents one participant's outcome in a race
type HorseResult struct {
	HorseID       string           `db:"horse_id" json:"horseId" validate:"required"`
	Name          string           `db:"name" json:"name" validate:"required"`
	Jockey        string           `db:"jockey" json:"jockey"`
	Trainer       string           `db:"trainer" json:"trainer"`
	FinalPosition int              `db:"final_position" json:"finalPosition" validate:"gte=0"`
	StartingPrice float64          `db:"starting_price" json:"startingPrice" validate:"gt=0"`
	PrizeMoney    *decimal.Decimal `db:"prize_money" json:"prizeMoney,omitempty"`
	Performance   Performance      `db:"-" json:"performance"`
}

// Performance holds the optional timing data of a runner
type Performance struct {
	FinishingTime *string `db:"finishing_time" json:"finishingTime,omitempty"`
	// Margin is the provider's distance behind the previous finisher, e.g. "1 1/2" or "courte tête"
	Margin *string `db:"margin" json:"margin,omitempty"`
}

// Finished reports whether the runner completed the race
func (h *HorseResult) Finished() bool {
	return h.FinalPosition != NonFinisherPosition
}

// GetFinishingTime returns the finishing time or an empty string if nil
func (h *HorseResult) GetFinishingTime() string {
	if h.Performance.FinishingTime == nil {
		return ""
	}
	return *h.Performance.FinishingTime
}

// GetMargin returns the raw margin or an empty string if nil
func (h *HorseResult) GetMargin() string {
	if h.Performance.Margin == nil {
		return ""
	}
	return *h.Performance.Margin
}
