package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/agendad/internal/severity"
	"github.com/sandeepkv93/agendad/internal/view"
)

// FormatCountdown renders seconds-until-due as the board shows it:
// coarse day/hour granularity far out, minutes close in.
func FormatCountdown(seconds int64) string {
	if seconds < 0 {
		return "overdue"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func TierBadge(tier severity.Tier) string {
	label := strings.ToUpper(string(tier))
	switch tier {
	case severity.TierCritical:
		return criticalStyle.Render(label)
	case severity.TierHigh:
		return highStyle.Render(label)
	case severity.TierMedium:
		return mediumStyle.Render(label)
	default:
		return lowStyle.Render(label)
	}
}

func renderRow(row view.Row, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	when := row.Item.ScheduledAt.UTC().Format("Jan 02 15:04")
	countdown := FormatCountdown(row.CountdownSeconds)
	if row.Overdue {
		countdown = overdueStyle.Render(countdown)
	}
	return fmt.Sprintf("%s%-8s %-10s %-42s %s  %s",
		marker, TierBadge(row.Severity.Tier), row.Item.Source, truncate(row.Item.Title, 42), when, countdown)
}

// RenderBoard renders the projected rows, honoring day grouping when
// the projection produced groups. The cursor indexes the flat row
// order, which matches the grouped traversal order.
func RenderBoard(vm view.ViewModel, cursor int) string {
	if vm.Stats.Total == 0 {
		return dimStyle.Render("nothing upcoming in this window")
	}

	var b strings.Builder
	if len(vm.Groups) > 0 {
		idx := 0
		for i, group := range vm.Groups {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(groupStyle.Render(group.Date))
			b.WriteByte('\n')
			for _, row := range group.Rows {
				b.WriteString(renderRow(row, idx == cursor))
				b.WriteByte('\n')
				idx++
			}
		}
	} else {
		for i, row := range vm.Rows {
			b.WriteString(renderRow(row, i == cursor))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStatsLine summarizes the filtered set plus clock and stream
// health for the header.
func RenderStatsLine(stats view.Stats, offset time.Duration, connected bool, unread int) string {
	conn := errorStyle.Render("○ offline")
	if connected {
		conn = statusStyle.Render("● live")
	}
	offsetSecs := int64(offset / time.Second)
	sign := ""
	if offsetSecs >= 0 {
		sign = "+"
	}
	line := fmt.Sprintf("%d items | %d overdue | %d within 24h | %d critical | Δ %s%ds | %s",
		stats.Total, stats.Overdue, stats.Within24h, stats.Critical, sign, offsetSecs, conn)
	if unread > 0 {
		line += fmt.Sprintf(" | %d unread", unread)
	}
	return line
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
