package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bgmi-arena/models"

	"github.com/charmbracelet/log"
)

// LiveWindow is how long a tournament stays Live after its start time.
const LiveWindow = 2 * time.Hour

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// StartTime parses a tournament's date and HH:mm clock in loc.
func StartTime(date, clock string, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, fmt.Errorf("tournament time is missing")
	}
	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid tournament start %q %q: %w", date, clock, err)
	}
	return start, nil
}

// ComputeStatus derives a tournament's status at now. The start is read in
// now's location. Live covers [start, start+LiveWindow). Input that cannot
// be parsed reports Upcoming together with the parse error.
func ComputeStatus(now time.Time, date, clock string) (models.TournamentStatus, error) {
	start, err := StartTime(date, clock, now.Location())
	if err != nil {
		return models.TournamentUpcoming, err
	}
	switch {
	case now.Before(start):
		return models.TournamentUpcoming, nil
	case now.Before(start.Add(LiveWindow)):
		return models.TournamentLive, nil
	default:
		return models.TournamentCompleted, nil
	}
}

// RefreshStatuses recomputes every tournament's status and writes the ones
// that changed. Each write is guarded on the status it replaces.
func (s *TournamentService) RefreshStatuses(ctx context.Context) (int, error) {
	var tournaments []models.Tournament
	if err := s.DB.WithContext(ctx).
		Select("id", "name", "date", "time", "status").
		Find(&tournaments).Error; err != nil {
		return 0, fmt.Errorf("failed to load tournaments: %w", err)
	}

	now := s.now()
	updated := 0
	for _, t := range tournaments {
		next, err := ComputeStatus(now, t.Date, t.Time)
		if err != nil {
			log.Warn("tournament start unreadable, status left as upcoming", "tournament", t.ID, "err", err)
		}
		if next == t.Status {
			continue
		}
		res := s.DB.WithContext(ctx).Model(&models.Tournament{}).
			Where("id = ? AND status = ?", t.ID, t.Status).
			Update("status", next)
		if res.Error != nil {
			return updated, fmt.Errorf("failed to update status of %s: %w", t.ID, res.Error)
		}
		if res.RowsAffected == 1 {
			updated++
			log.Info("tournament status changed", "tournament", t.Name, "from", t.Status, "to", next)
		}
	}
	s.Metrics.recordStatusRun(updated)
	return updated, nil
}
