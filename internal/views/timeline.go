package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/agendad/internal/model"
)

// RelativeTime renders an entry age the way the timeline shows it.
func RelativeTime(at, now time.Time) string {
	diff := now.Sub(at)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return at.UTC().Format("2006-01-02 15:04")
	}
}

func renderEntry(entry model.TimelineEntry, now time.Time, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	age := RelativeTime(entry.CreatedAt, now)
	if entry.Kind == model.EntryKindComment {
		header := marker + dimStyle.Render(fmt.Sprintf("%s · %s", entry.AuthorID, age))
		body := RenderMarkdown(entry.Body)
		if !entry.UpdatedAt.Equal(entry.CreatedAt) {
			header += dimStyle.Render(" (edited)")
		}
		return header + "\n" + body
	}
	label := entry.SystemLabel()
	text := entry.Body
	if text == "" {
		text = label
	} else {
		text = label + ": " + text
	}
	return marker + dimStyle.Render(fmt.Sprintf("* %s · %s", text, age))
}

// RenderTimeline renders held entries oldest first, with a load-more
// hint while older pages remain. A negative cursor selects nothing.
func RenderTimeline(entries []model.TimelineEntry, hasMore bool, now time.Time, cursor int) string {
	var b strings.Builder
	if hasMore {
		b.WriteString(dimStyle.Render("(press m to load older entries)"))
		b.WriteString("\n")
	}
	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("no activity yet"))
		return b.String()
	}
	for i, entry := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderEntry(entry, now, i == cursor))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
