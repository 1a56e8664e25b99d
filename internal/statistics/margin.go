package statistics

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/race-insights/internal/models"
)

const (
	// secondsPerLength converts a time gap into approximate lengths
	secondsPerLength = 0.2

	labelDeadHeat    = "dead heat"
	labelNose        = "nose"
	labelShortHead   = "short head"
	labelHead        = "head"
	labelNeck        = "neck"
	labelHalfLength  = "1/2 length"
	labelThreeQuarts = "3/4 length"
	labelDistance    = "distance"
	labelNotRecorded = "not recorded"

	distanceLengths = 31.0
)

// namedMargins maps provider terms, English and French, to approximate lengths
var namedMargins = map[string]float64{
	"dead heat":   0,
	"dht":         0,
	"dh":          0,
	"ex aequo":    0,
	"ex-aequo":    0,
	"nose":        0.05,
	"nez":         0.05,
	"short head":  0.1,
	"shd":         0.1,
	"sh":          0.1,
	"courte tete": 0.1,
	"courte tête": 0.1,
	"head":        0.2,
	"hd":          0.2,
	"tete":        0.2,
	"tête":        0.2,
	"neck":        0.3,
	"nk":          0.3,
	"encolure":    0.3,
	"distance":    distanceLengths,
	"dist":        distanceLengths,
	"dist.":       distanceLengths,
	"loin":        distanceLengths,
}

var lengthSuffixes = []string{"longueurs", "longueur", "lengths", "length", "lens", "len", "l"}

var fractionReplacer = strings.NewReplacer("½", " 1/2", "¼", " 1/4", "¾", " 3/4", ",", ".")

// finishingTimePattern accepts 1'34"56, 1'34''5, 1:34.56, 94.56 and 1m34.56s
var finishingTimePattern = regexp.MustCompile(`^(?:(\d+)\s*['m:]\s*)?(\d+(?:\.\d+)?)\s*(?:(?:"|''|s)\s*(\d+)?)?$`)

// marginOf classifies the gap between the first two finishers
func marginOf(finishers []models.HorseResult) *models.Margin {
	if len(finishers) < 2 {
		return nil
	}
	first, second := finishers[0], finishers[1]

	if raw := strings.TrimSpace(second.GetMargin()); raw != "" {
		if lengths, ok := ParseLengths(raw); ok {
			return marginFromLengths(lengths)
		}
		return &models.Margin{Label: raw, Lengths: -1, Class: models.MarginUnknown}
	}

	t1, ok1 := ParseFinishingTime(first.GetFinishingTime())
	t2, ok2 := ParseFinishingTime(second.GetFinishingTime())
	if ok1 && ok2 {
		gap := (t2 - t1).Seconds()
		if gap < 0 {
			gap = 0
		}
		return marginFromLengths(gap / secondsPerLength)
	}

	return &models.Margin{Label: labelNotRecorded, Lengths: -1, Class: models.MarginUnknown}
}

// ParseLengths converts a raw margin such as "1 1/2", "2,5 L" or "courte tête" into lengths
func ParseLengths(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if l, ok := namedMargins[s]; ok {
		return l, true
	}

	s = fractionReplacer.Replace(s)
	for _, suffix := range lengthSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	if l, ok := namedMargins[s]; ok {
		return l, true
	}

	parts := strings.Fields(s)
	if len(parts) == 0 {
		return 0, false
	}
	total := 0.0
	for _, part := range parts {
		v, ok := parseNumber(part)
		if !ok {
			return 0, false
		}
		total += v
	}
	return total, true
}

func parseNumber(part string) (float64, bool) {
	if num, den, found := strings.Cut(part, "/"); found {
		n, ok1 := parseFinite(num)
		d, ok2 := parseFinite(den)
		if !ok1 || !ok2 || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	return parseFinite(part)
}

// parseFinite rejects negatives and the nan/inf spellings ParseFloat accepts
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseFinishingTime parses the finishing time formats used by providers
func ParseFinishingTime(raw string) (time.Duration, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	m := finishingTimePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	if m[1] != "" {
		minutes, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		seconds += float64(minutes) * 60
	}
	if m[3] != "" {
		if strings.Contains(m[2], ".") {
			return 0, false
		}
		frac, err := strconv.ParseFloat("0."+m[3], 64)
		if err != nil {
			return 0, false
		}
		seconds += frac
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), true
}

// marginFromLengths maps a length count onto the margin vocabulary
func marginFromLengths(l float64) *models.Margin {
	var label string
	rounded := l
	switch {
	case l <= 0:
		label, rounded = labelDeadHeat, 0
	case l < 0.075:
		label = labelNose
	case l < 0.15:
		label = labelShortHead
	case l < 0.25:
		label = labelHead
	case l < 0.4:
		label = labelNeck
	case l < 0.625:
		label, rounded = labelHalfLength, 0.5
	case l < 0.875:
		label, rounded = labelThreeQuarts, 0.75
	case l < 2.75:
		rounded = math.Round(l*2) / 2
		label = formatLengths(rounded)
	case l <= 30:
		rounded = math.Round(l)
		label = formatLengths(rounded)
	default:
		label, rounded = labelDistance, distanceLengths
	}

	return &models.Margin{Label: label, Lengths: rounded, Class: classify(rounded)}
}

func formatLengths(l float64) string {
	whole := math.Floor(l)
	half := l-whole >= 0.5
	switch {
	case whole == 1 && !half:
		return "1 length"
	case half:
		return fmt.Sprintf("%d 1/2 lengths", int(whole))
	default:
		return fmt.Sprintf("%d lengths", int(whole))
	}
}

func classify(l float64) models.MarginClass {
	switch {
	case l < 0.625:
		return models.MarginClose
	case l < 3.5:
		return models.MarginComfortable
	default:
		return models.MarginDecisive
	}
}
