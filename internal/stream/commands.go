package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/race-insights/internal/session"
)

// Command types accepted from clients
const (
	CommandSelectView     = "select_view"
	CommandSelectRace     = "select_race"
	CommandClearSelection = "clear_selection"
	CommandSetFilter      = "set_filter"
	CommandRefresh        = "refresh"
	CommandAnalysis       = "analysis"
)

// Command is a request sent by a client
type Command struct {
	Type   string `json:"type"`
	View   string `json:"view,omitempty"`
	RaceID string `json:"raceId,omitempty"`
	Venue  string `json:"venue,omitempty"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD, today when empty
}

// handle applies a command. Session changes reach every client through the
// observer; only errors and analyses are answered to the sender directly.
func (h *Hub) handle(c *Client, cmd Command) {
	if err := h.apply(c, cmd); err != nil {
		h.log.LogCommandRejected(c.id, cmd.Type, err)
		c.reply(Message{Type: MessageError, Payload: ErrorPayload{Command: cmd.Type, Error: err.Error()}})
	}
}

func (h *Hub) apply(c *Client, cmd Command) error {
	switch cmd.Type {
	case CommandSelectView:
		view, err := session.ParseViewMode(cmd.View)
		if err != nil {
			return err
		}
		return h.session.SelectView(view)

	case CommandSelectRace:
		return h.session.SelectRaceByID(cmd.RaceID)

	case CommandClearSelection:
		h.session.ClearSelection()
		return nil

	case CommandSetFilter:
		h.session.SetVenueFilter(cmd.Venue)
		return nil

	case CommandAnalysis:
		if h.controller == nil {
			return fmt.Errorf("analysis is not available")
		}
		a, err := h.controller.SelectedAnalysis()
		if err != nil {
			return err
		}
		c.reply(Message{Type: MessageAnalysis, Payload: a})
		return nil

	case CommandRefresh:
		if h.controller == nil {
			return fmt.Errorf("refresh is not available")
		}
		date, err := h.resolveDate(cmd.Date)
		if err != nil {
			return err
		}
		go h.refresh(c, cmd, date)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func (h *Hub) refresh(c *Client, cmd Command, date time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	report, err := h.controller.LoadDate(ctx, date)
	if err != nil {
		h.log.LogCommandRejected(c.id, cmd.Type, err)
		c.reply(Message{Type: MessageError, Payload: ErrorPayload{Command: cmd.Type, Error: err.Error()}})
		return
	}
	c.reply(Message{Type: MessageLoad, Payload: LoadPayload{
		Date:     date.Format("2006-01-02"),
		Sequence: report.Sequence,
		Accepted: report.Accepted,
		Rejected: len(report.Rejected),
		Applied:  report.Applied,
	}})
}

// LoadPayload summarizes a refresh for the client that asked for it
type LoadPayload struct {
	Date     string `json:"date"`
	Sequence uint64 `json:"sequence"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Applied  bool   `json:"applied"`
}

func (h *Hub) resolveDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().In(h.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location), nil
	}
	date, err := time.ParseInLocation("2006-01-02", s, h.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return date, nil
}
