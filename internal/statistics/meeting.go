package statistics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yourusername/race-insights/internal/models"
)

// topN limits the jockey and trainer leaderboards
const topN = 5

// SummarizeMeeting aggregates every record of a meeting, ignoring any venue filter.
// Records without attached statistics are computed on the fly.
func SummarizeMeeting(records []models.RaceRecord) models.MeetingSummary {
	summary := models.MeetingSummary{
		RaceCount:         len(records),
		TotalPrizeMoney:   decimal.Zero,
		RacesByHippodrome: make(map[string]int),
		RacesByType:       make(map[string]int),
	}

	jockeyWins := make(map[string]int)
	trainerWins := make(map[string]int)

	for i := range records {
		race := &records[i]
		summary.RacesByHippodrome[race.Venue()]++
		summary.RacesByType[race.RaceType]++

		if !race.HasResults() {
			continue
		}
		stats := race.Statistics
		if stats == nil {
			computed := Compute(race)
			stats = &computed
		}

		summary.CompletedRaces++
		summary.TotalPrizeMoney = summary.TotalPrizeMoney.Add(stats.TotalPrizeMoney)
		if stats.FavoriteWon {
			summary.FavoriteWins++
		}
		if stats.Margin.IsClose() {
			summary.CloseFinishes++
		}
		if winner, ok := Winner(race); ok {
			if winner.Jockey != "" {
				jockeyWins[winner.Jockey]++
			}
			if winner.Trainer != "" {
				trainerWins[winner.Trainer]++
			}
		}
	}

	if summary.CompletedRaces > 0 {
		summary.FavoriteWinRate = float64(summary.FavoriteWins) / float64(summary.CompletedRaces)
	}
	summary.TopJockeys = leaderboard(jockeyWins)
	summary.TopTrainers = leaderboard(trainerWins)

	return summary
}

// leaderboard sorts by wins descending then name ascending
func leaderboard(wins map[string]int) []models.WinCount {
	board := make([]models.WinCount, 0, len(wins))
	for name, n := range wins {
		board = append(board, models.WinCount{Name: name, Wins: n})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Wins != board[j].Wins {
			return board[i].Wins > board[j].Wins
		}
		return board[i].Name < board[j].Name
	})
	if len(board) > topN {
		board = board[:topN]
	}
	return board
}
