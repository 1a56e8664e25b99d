package service

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/models"
)

// DataNormalizer maps provider spellings onto canonical values before validation
type DataNormalizer struct {
	venueNameMap map[string]string // upper-cased provider venue to canonical name
	logger       *logrus.Entry
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(log *logrus.Logger) *DataNormalizer {
	return &DataNormalizer{
		venueNameMap: buildVenueNameMap(),
		logger:       logger.OrNop(log).WithField("component", "normalizer"),
	}
}

// NormalizeRecord returns a cleaned copy of a provider record. The input is
// not modified; incoming statistics are dropped so they are always recomputed.
func (n *DataNormalizer) NormalizeRecord(race models.RaceRecord) models.RaceRecord {
	out := race
	out.ID = strings.TrimSpace(race.ID)
	out.RaceName = collapseSpaces(race.RaceName)
	out.Hippodrome = n.normalizeVenue(race.Hippodrome)
	out.Time = normalizeStartTime(race.Time)
	out.RaceType = normalizeRaceType(race.RaceType)
	out.Statistics = nil

	if race.Results != nil {
		out.Results = make([]models.HorseResult, len(race.Results))
		for i, h := range race.Results {
			h.HorseID = strings.TrimSpace(h.HorseID)
			h.Name = collapseSpaces(h.Name)
			h.Jockey = collapseSpaces(h.Jockey)
			h.Trainer = collapseSpaces(h.Trainer)
			h.Performance = models.Performance{
				FinishingTime: trimmedOrNil(h.Performance.FinishingTime),
				Margin:        trimmedOrNil(h.Performance.Margin),
			}
			out.Results[i] = h
		}
	}

	return out
}

// NormalizeMeeting normalizes every record of a meeting, keeping order
func (n *DataNormalizer) NormalizeMeeting(records []models.RaceRecord) []models.RaceRecord {
	out := make([]models.RaceRecord, len(records))
	for i := range records {
		out[i] = n.NormalizeRecord(records[i])
	}
	return out
}

func (n *DataNormalizer) normalizeVenue(venue string) string {
	venue = collapseSpaces(venue)
	if venue == "" {
		return ""
	}
	if canonical, ok := n.venueNameMap[strings.ToUpper(venue)]; ok {
		return canonical
	}
	return venue
}

var raceTypeMap = map[string]string{
	"FLAT":          models.RaceTypeFlat,
	"PLAT":          models.RaceTypeFlat,
	"JUMP":          models.RaceTypeJump,
	"HURDLE":        models.RaceTypeJump,
	"HAIES":         models.RaceTypeJump,
	"CHASE":         models.RaceTypeJump,
	"STEEPLE":       models.RaceTypeJump,
	"STEEPLE-CHASE": models.RaceTypeJump,
	"CROSS":         models.RaceTypeJump,
	"OBSTACLE":      models.RaceTypeJump,
	"TROT":          models.RaceTypeTrot,
	"ATTELE":        models.RaceTypeTrot,
	"ATTELÉ":        models.RaceTypeTrot,
	"HARNESS":       models.RaceTypeTrot,
	"MONTE":         models.RaceTypeMounted,
	"MONTÉ":         models.RaceTypeMounted,
	"MOUNTED_TROT":  models.RaceTypeMounted,
}

// normalizeRaceType maps provider race types onto the canonical set; unknown
// types are kept lower-cased
func normalizeRaceType(raceType string) string {
	normalized := strings.ToUpper(strings.TrimSpace(raceType))
	if normalized == "" {
		return ""
	}
	if mapped, ok := raceTypeMap[normalized]; ok {
		return mapped
	}
	return strings.ToLower(normalized)
}

var startTimePattern = regexp.MustCompile(`^(\d{1,2})\s*[:hH.]\s*(\d{2})$`)

// normalizeStartTime turns 13h50, 13.50 and 9:05 into HH:MM
func normalizeStartTime(t string) string {
	t = strings.TrimSpace(t)
	m := startTimePattern.FindStringSubmatch(t)
	if m == nil {
		return t
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2]
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// buildVenueNameMap lists provider spellings of French venues
func buildVenueNameMap() map[string]string {
	return map[string]string{
		"PARISLONGCHAMP":   "ParisLongchamp",
		"PARIS-LONGCHAMP":  "ParisLongchamp",
		"LONGCHAMP":        "ParisLongchamp",
		"CHANTILLY":        "Chantilly",
		"DEAUVILLE":        "Deauville",
		"CLAIREFONTAINE":   "Clairefontaine",
		"SAINT-CLOUD":      "Saint-Cloud",
		"ST CLOUD":         "Saint-Cloud",
		"ST-CLOUD":         "Saint-Cloud",
		"AUTEUIL":          "Auteuil",
		"PARIS-VINCENNES":  "Vincennes",
		"VINCENNES":        "Vincennes",
		"ENGHIEN":          "Enghien",
		"CAGNES-SUR-MER":   "Cagnes-sur-Mer",
		"CAGNES SUR MER":   "Cagnes-sur-Mer",
		"MAISONS-LAFFITTE": "Maisons-Laffitte",
		"COMPIEGNE":        "Compiègne",
		"COMPIÈGNE":        "Compiègne",
		"LYON-PARILLY":     "Lyon-Parilly",
		"PAU":              "Pau",
	}
}
