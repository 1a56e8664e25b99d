// Package analysis turns a race record into a narrative summary and key insights.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/race-insights/internal/models"
	"github.com/yourusername/race-insights/internal/statistics"
)

// DefaultLongShotMultiple is how many times the favorite's price a podium
// runner must exceed to count as a long shot
const DefaultLongShotMultiple = 3.0

// Generator produces race analyses. It holds no mutable state.
type Generator struct {
	longShotMultiple float64
}

// NewGenerator creates a generator; a non-positive multiple falls back to the default
func NewGenerator(longShotMultiple float64) *Generator {
	if longShotMultiple <= 0 {
		longShotMultiple = DefaultLongShotMultiple
	}
	return &Generator{longShotMultiple: longShotMultiple}
}

var defaultGenerator = NewGenerator(DefaultLongShotMultiple)

// Generate analyses a race with the default settings
func Generate(race *models.RaceRecord) (models.Analysis, error) {
	return defaultGenerator.Generate(race)
}

// facts is everything the insight rules read about one race
type facts struct {
	race     *models.RaceRecord
	stats    models.RaceStatistics
	winner   models.HorseResult
	favorite models.HorseResult
	podium   []models.HorseResult
	multiple float64
}

// rule yields one insight or reports that it does not apply
type rule func(f *facts) (string, bool)

// rules run in this order; each contributes at most one insight
var rules = []rule{
	favoriteInsight,
	marginInsight,
	jockeyInsight,
	trainerInsight,
	longShotInsight,
	winningTimeInsight,
}

// Generate analyses a race. Races without a declared winner are rejected
// with an InvalidInputError.
func (g *Generator) Generate(race *models.RaceRecord) (models.Analysis, error) {
	if race == nil {
		return models.Analysis{}, models.NewInvalidInputError("", "race is nil")
	}
	if !race.HasResults() {
		return models.Analysis{}, models.NewInvalidInputError(race.ID, "race has no results")
	}
	winner, ok := statistics.Winner(race)
	if !ok {
		return models.Analysis{}, models.NewInvalidInputError(race.ID, "race has no winner")
	}
	favorite, _ := statistics.Favorite(race)

	var stats models.RaceStatistics
	if race.Statistics != nil {
		stats = *race.Statistics
	} else {
		stats = statistics.Compute(race)
	}

	f := &facts{
		race:     race,
		stats:    stats,
		winner:   winner,
		favorite: favorite,
		podium:   statistics.Podium(race),
		multiple: g.longShotMultiple,
	}

	insights := make([]string, 0, len(rules))
	for _, r := range rules {
		if text, ok := r(f); ok {
			insights = append(insights, text)
		}
	}

	return models.Analysis{
		RaceID:      race.ID,
		Summary:     summary(f),
		KeyInsights: insights,
	}, nil
}

func summary(f *facts) string {
	lead := fmt.Sprintf("%s won the %s over %dm at %s", f.winner.Name, f.race.RaceName, f.race.Distance, f.race.Venue())
	switch {
	case f.stats.FavoriteWon:
		return lead + " as the favorite."
	case !f.favorite.Finished():
		return fmt.Sprintf("%s; the favorite %s lost and did not finish.", lead, f.favorite.Name)
	default:
		return fmt.Sprintf("%s; the favorite %s lost, finishing %s.", lead, f.favorite.Name, Ordinal(f.favorite.FinalPosition))
	}
}

func favoriteInsight(f *facts) (string, bool) {
	fav := f.favorite
	if f.stats.FavoriteWon {
		return fmt.Sprintf("Favorite %s (%s) justified its price and won.", fav.Name, price(fav.StartingPrice)), true
	}
	if !fav.Finished() {
		return fmt.Sprintf("Favorite %s (%s) failed to finish; winner %s started at %s.",
			fav.Name, price(fav.StartingPrice), f.winner.Name, price(f.winner.StartingPrice)), true
	}
	return fmt.Sprintf("Favorite %s (%s) lost, finishing %s; winner %s started at %s, %s longer.",
		fav.Name, price(fav.StartingPrice), Ordinal(fav.FinalPosition),
		f.winner.Name, price(f.winner.StartingPrice), price(f.winner.StartingPrice-fav.StartingPrice)), true
}

func marginInsight(f *facts) (string, bool) {
	m := f.stats.Margin
	if m == nil || m.Class == models.MarginUnknown || len(f.podium) < 2 {
		return "", false
	}
	second := f.podium[1]
	switch m.Class {
	case models.MarginClose:
		if m.Lengths == 0 {
			return fmt.Sprintf("Close finish: %s and %s could not be separated (dead heat).", f.winner.Name, second.Name), true
		}
		return fmt.Sprintf("Close finish: %s held off %s by %s.", f.winner.Name, second.Name, withArticle(m.Label)), true
	case models.MarginComfortable:
		return fmt.Sprintf("%s won comfortably, %s clear of %s.", f.winner.Name, m.Label, second.Name), true
	default:
		return fmt.Sprintf("Decisive win: %s beat %s by %s.", f.winner.Name, second.Name, withArticle(m.Label)), true
	}
}

func jockeyInsight(f *facts) (string, bool) {
	return repeatedOnPodium(f.podium, func(h models.HorseResult) string { return h.Jockey }, "Jockey %s rode %d of the top three (%s)")
}

func trainerInsight(f *facts) (string, bool) {
	return repeatedOnPodium(f.podium, func(h models.HorseResult) string { return h.Trainer }, "Trainer %s saddled %d of the top three (%s)")
}

// repeatedOnPodium reports every name appearing more than once on the podium,
// in order of first appearance
func repeatedOnPodium(podium []models.HorseResult, key func(models.HorseResult) string, format string) (string, bool) {
	order := make([]string, 0, len(podium))
	horses := make(map[string][]string)
	for _, h := range podium {
		name := strings.TrimSpace(key(h))
		if name == "" {
			continue
		}
		if _, seen := horses[name]; !seen {
			order = append(order, name)
		}
		horses[name] = append(horses[name], h.Name)
	}

	parts := make([]string, 0, 1)
	for _, name := range order {
		if len(horses[name]) > 1 {
			parts = append(parts, fmt.Sprintf(format, name, len(horses[name]), strings.Join(horses[name], ", ")))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "; ") + ".", true
}

func longShotInsight(f *facts) (string, bool) {
	threshold := f.favorite.StartingPrice * f.multiple
	parts := make([]string, 0, len(f.podium))
	for _, h := range f.podium {
		if h.StartingPrice > threshold {
			parts = append(parts, fmt.Sprintf("%s at %s finished %s", h.Name, price(h.StartingPrice), Ordinal(h.FinalPosition)))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return fmt.Sprintf("Long shot on the podium: %s (more than %sx the favorite's %s).",
		strings.Join(parts, ", "), strconv.FormatFloat(f.multiple, 'f', -1, 64), price(f.favorite.StartingPrice)), true
}

func winningTimeInsight(f *facts) (string, bool) {
	if f.stats.WinningTime == "" {
		return "", false
	}
	return fmt.Sprintf("Winning time: %s.", f.stats.WinningTime), true
}

func withArticle(label string) string {
	switch label {
	case "nose", "short head", "head", "neck", "distance":
		return "a " + label
	default:
		return label
	}
}

func price(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// Ordinal formats a finishing position as 1st, 2nd, 3rd, 4th...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
