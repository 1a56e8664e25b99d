// Package statistics derives per-race and per-meeting statistics from race records.
package statistics

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yourusername/race-insights/internal/models"
)

// Compute derives the statistics of a race. It never fails: a race without
// results yields zero prize money, FavoriteWon=false and no margin.
func Compute(race *models.RaceRecord) models.RaceStatistics {
	stats := models.RaceStatistics{TotalPrizeMoney: decimal.Zero}
	if race == nil || !race.HasResults() {
		return stats
	}

	stats.TotalPrizeMoney = prizeMoney(race)

	if fav, ok := Favorite(race); ok {
		stats.FavoriteID = fav.HorseID
		stats.FavoriteWon = fav.FinalPosition == 1
	}

	finishers := race.Finishers()
	stats.FinisherCount = len(finishers)
	if winner, ok := Winner(race); ok {
		stats.WinnerID = winner.HorseID
		stats.WinningTime = winner.GetFinishingTime()
	}
	stats.Margin = marginOf(finishers)

	return stats
}

// Favorite returns the runner with the shortest starting price.
// Ties go to the lower finishing position, non-finishers ranking after every
// finisher; a remaining tie keeps the runner listed first.
func Favorite(race *models.RaceRecord) (models.HorseResult, bool) {
	best := -1
	for i := range race.Results {
		if best < 0 {
			best = i
			continue
		}
		cur, fav := &race.Results[i], &race.Results[best]
		if cur.StartingPrice < fav.StartingPrice ||
			(cur.StartingPrice == fav.StartingPrice && positionRank(cur) < positionRank(fav)) {
			best = i
		}
	}
	if best < 0 {
		return models.HorseResult{}, false
	}
	return race.Results[best], true
}

// Winner returns the runner placed first
func Winner(race *models.RaceRecord) (models.HorseResult, bool) {
	for _, res := range race.Results {
		if res.FinalPosition == 1 {
			return res, true
		}
	}
	return models.HorseResult{}, false
}

// Podium returns the top three finishers in finishing order
func Podium(race *models.RaceRecord) []models.HorseResult {
	podium := make([]models.HorseResult, 0, 3)
	for _, res := range race.Results {
		if res.Finished() && res.FinalPosition <= 3 {
			podium = append(podium, res)
		}
	}
	return podium
}

func positionRank(h *models.HorseResult) int {
	if !h.Finished() {
		return math.MaxInt
	}
	return h.FinalPosition
}

// prizeMoney sums the declared per-horse allocations, falling back to the
// race purse when no runner carries one.
func prizeMoney(race *models.RaceRecord) decimal.Decimal {
	total := decimal.Zero
	declared := false
	for _, res := range race.Results {
		if res.PrizeMoney != nil {
			total = total.Add(*res.PrizeMoney)
			declared = true
		}
	}
	if declared {
		return total
	}
	if race.Purse != nil {
		return *race.Purse
	}
	return decimal.Zero
}
