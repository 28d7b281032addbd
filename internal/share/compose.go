// Package share composes the progress summary and hands it to a native
// share target, falling back to the clipboard or a file.
package share

import (
	"fmt"
	"strings"
)

// Title is the share sheet title.
const Title = "2026 강청 겨울 수련회"

// MinMissionsToShare is the number of completed checklist missions needed
// before sharing is offered.
const MinMissionsToShare = 3

// Report is everything the share text is built from.
type Report struct {
	UserName  string
	Completed int
	Total     int

	// Missions are the titles of completed checklist missions, in catalog order.
	Missions []string

	// Stamps are the completed stamp entries, in catalog order.
	Stamps []StampLine

	// Testimony is the submitted testimony, if any.
	Testimony string
}

// StampLine is one completed stamp entry.
type StampLine struct {
	Emoji    string
	Activity string
	Target   string
	Mission  string
}

// Compose renders the share text. Sections without content are omitted.
func Compose(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s님의 미션 현황\n", r.UserName)
	fmt.Fprintf(&b, "🎯 %d/%d개 미션 완료!\n\n", r.Completed, r.Total)

	if len(r.Missions) > 0 {
		b.WriteString("📋 완료한 미션:\n")
		for _, title := range r.Missions {
			fmt.Fprintf(&b, "✅ %s\n", title)
		}
		b.WriteString("\n")
	}

	if len(r.Stamps) > 0 {
		b.WriteString("🏅 스탬프:\n")
		for _, s := range r.Stamps {
			line := strings.TrimSpace(s.Emoji + " " + s.Activity)
			fmt.Fprintf(&b, "%s → %s", line, s.Target)
			if s.Mission != "" {
				fmt.Fprintf(&b, " (%s)", s.Mission)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.Testimony != "" {
		fmt.Fprintf(&b, "✍️ 간증문:\n\"%s\"\n\n", r.Testimony)
	}

	return b.String()
}

// Shareable reports whether enough missions are done to offer sharing.
func Shareable(completed int) bool {
	return completed >= MinMissionsToShare
}
