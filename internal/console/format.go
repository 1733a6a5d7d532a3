package console

import (
	"fmt"
	"math"
	"strings"
	"time"

	"pickme/internal/history"
	"pickme/internal/models"

	"github.com/mattn/go-runewidth"
)

const lessThanMinute = "less than 1 minute"

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDuration renders a remaining cooldown. Minutes are left out once
// the duration reaches a full day.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 1 {
		return lessThanMinute
	}
	value := int64(math.Floor(seconds))
	days := value / 86400
	value %= 86400
	hours := value / 3600
	value %= 3600
	minutes := value / 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(int(days), "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(int(hours), "hour"))
	}
	if days == 0 && minutes > 0 {
		parts = append(parts, plural(int(minutes), "minute"))
	}
	if len(parts) == 0 {
		return lessThanMinute
	}
	return strings.Join(parts, " ")
}

// FormatSince is the coarse relative age of timestamp.
func FormatSince(timestamp float64, now time.Time) string {
	diff := int64(math.Max(0, math.Floor(float64(now.UnixNano())/1e9-timestamp)))
	switch {
	case diff < 60:
		return "just now"
	case diff < 3600:
		return plural(int(diff/60), "minute") + " ago"
	case diff < 86400:
		return plural(int(diff/3600), "hour") + " ago"
	}
	return plural(int(diff/86400), "day") + " ago"
}

func FormatTime(timestamp float64, loc *time.Location) string {
	if timestamp <= 0 || math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return placeholder
	}
	return history.Time(timestamp).In(loc).Format(time.DateTime)
}

func shortTime(timestamp float64, loc *time.Location) string {
	return history.Time(timestamp).In(loc).Format("15:04")
}

func modeLabel(mode models.DrawMode) string {
	switch mode {
	case models.ModeGroup:
		return "Group pick"
	case models.ModeBatch:
		return "Batch pick"
	}
	return "Random pick"
}

// entryNames is the name line of a history entry.
func entryNames(entry models.HistoryEntry) string {
	names := entry.Names()
	if len(names) == 0 {
		return placeholder
	}
	joined := strings.Join(names, ", ")
	if entry.Mode == models.ModeGroup && entry.Group != nil {
		return fmt.Sprintf("Group %d · %s", *entry.Group, joined)
	}
	return joined
}

// column pads s to width terminal cells, truncating wide names.
func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
