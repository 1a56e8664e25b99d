package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/race-insights/internal/models"
	"github.com/yourusername/race-insights/internal/session"
	"github.com/yourusername/race-insights/internal/statistics"
)

var (
	showDate  string
	showRace  string
	showVenue string
	showView  string
	showJSON  bool
)

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "Meeting date (YYYY-MM-DD), today when empty")
	showCmd.Flags().StringVarP(&showRace, "race", "r", "", "Race ID to select")
	showCmd.Flags().StringVar(&showVenue, "venue", "", "Only list races at this hippodrome")
	showCmd.Flags().StringVar(&showView, "view", string(session.ListView), "View to render: list, analysis or stats")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Write JSON instead of text")
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Load a meeting and print a view of it",
	Example: `  race-insights show --date 2024-06-16
  race-insights show --date 2024-06-16 --venue Chantilly
  race-insights show --date 2024-06-16 --race R1C4 --view analysis
  race-insights show --view stats --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := session.ParseViewMode(showView)
		if err != nil {
			return err
		}
		date, err := parseDate(showDate)
		if err != nil {
			return err
		}

		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.results.LoadDate(cmd.Context(), date)
		if err != nil {
			return err
		}
		for _, rejected := range report.Rejected {
			fmt.Fprintf(os.Stderr, "skipped %v\n", rejected)
		}

		a.session.SetVenueFilter(showVenue)
		if showRace != "" {
			if err := a.session.SelectRaceByID(showRace); err != nil {
				return err
			}
		}
		if err := a.session.SelectView(view); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch view {
		case session.AnalysisView:
			result, err := a.results.SelectedAnalysis()
			if err != nil {
				return err
			}
			if showJSON {
				return writeJSON(out, result)
			}
			printAnalysis(out, result)
		case session.StatsView:
			summary := a.results.MeetingSummary()
			if showJSON {
				return writeJSON(out, summary)
			}
			printSummary(out, summary)
		default:
			races := a.session.FilteredResults()
			if showJSON {
				return writeJSON(out, races)
			}
			printRaces(out, races, a.session.Hippodromes())
		}
		return nil
	},
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRaces(w io.Writer, races []models.RaceRecord, hippodromes []string) {
	fmt.Fprintf(w, "Hippodromes: %s\n\n", strings.Join(hippodromes, ", "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RACE\tTIME\tHIPPODROME\tNAME\tDISTANCE\tWINNER\tFAVORITE\tMARGIN")
	for i := range races {
		race := &races[i]
		winner, favorite := "-", "-"
		if h, ok := statistics.Winner(race); ok {
			winner = h.Name
		}
		if h, ok := statistics.Favorite(race); ok {
			favorite = h.Name
		}
		margin := "-"
		if race.Statistics != nil {
			if race.Statistics.FavoriteWon {
				favorite += " (won)"
			}
			if m := race.Statistics.Margin.String(); m != "" {
				margin = m
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dm\t%s\t%s\t%s\n",
			race.ID, race.Time, race.Venue(), race.RaceName, race.Distance, winner, favorite, margin)
	}
	tw.Flush()
}

func printAnalysis(w io.Writer, a models.Analysis) {
	fmt.Fprintf(w, "%s\n\n%s\n\n", a.RaceID, a.Summary)
	for i, insight := range a.KeyInsights {
		fmt.Fprintf(w, "%d. %s\n", i+1, insight)
	}
}

func printSummary(w io.Writer, s models.MeetingSummary) {
	fmt.Fprintf(w, "Races:            %d (%d completed)\n", s.RaceCount, s.CompletedRaces)
	fmt.Fprintf(w, "Favorites won:    %d (%.0f%%)\n", s.FavoriteWins, s.FavoriteWinRate*100)
	fmt.Fprintf(w, "Close finishes:   %d\n", s.CloseFinishes)
	fmt.Fprintf(w, "Total prize:      %s\n", s.TotalPrizeMoney.StringFixed(2))

	printCounts(w, "By hippodrome", s.RacesByHippodrome)
	printCounts(w, "By race type", s.RacesByType)
	printLeaders(w, "Top jockeys", s.TopJockeys)
	printLeaders(w, "Top trainers", s.TopTrainers)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range sortedKeys(counts) {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}

func printLeaders(w io.Writer, title string, leaders []models.WinCount) {
	if len(leaders) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, l := range leaders {
		fmt.Fprintf(w, "  %-20s %d %s\n", l.Name, l.Wins, plural(l.Wins, "win"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
