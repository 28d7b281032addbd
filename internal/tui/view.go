package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/stamp"
)

// snapshot is everything View needs, copied out of the session on the
// engine goroutine.
type snapshot struct {
	userName      string
	days          []engine.DayView
	missions      []engine.MissionView
	progress      engine.Progress
	stamps        []engine.StampView
	stampProgress engine.Progress
	forms         engine.FormsView
	timetable     engine.TimetableView
	hasTimetable  bool
	canShare      bool
}

func takeSnapshot(s *engine.Session) snapshot {
	snap := snapshot{
		userName:      s.UserName(),
		days:          s.Days(),
		missions:      s.Missions(),
		progress:      s.Progress(),
		stamps:        s.Stamps(),
		stampProgress: s.StampProgress(),
		forms:         s.Forms(),
		canShare:      s.CanShare(),
	}
	snap.timetable, snap.hasTimetable = s.Timetable("")
	return snap
}

const progressWidth = 20

// progressBar renders completed/total as a fixed-width bar.
func progressBar(p engine.Progress) string {
	filled := 0
	if p.Total > 0 {
		filled = p.Completed * progressWidth / p.Total
	}
	return Done.Render(strings.Repeat("█", filled)) +
		Muted.Render(strings.Repeat("░", progressWidth-filled)) +
		fmt.Sprintf(" %d/%d", p.Completed, p.Total)
}

func (m Model) View() string {
	if !m.loaded {
		return Muted.Render("불러오는 중...")
	}
	if m.showSplash {
		return m.renderSplash()
	}
	if m.snap.userName == "" {
		return m.renderOnboarding()
	}

	var body string
	if m.showTimetable {
		body = m.renderTimetable()
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderMissions(), m.renderStamps())
	}

	parts := []string{m.renderHeader(), m.renderTabs(), body, m.renderForms()}
	if m.toast != "" {
		parts = append(parts, Toast.Render(m.toast))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderSplash() string {
	return Splash.Render(share.Title + "\n\n" + Muted.Render("아무 키나 눌러 시작하세요"))
}

func (m Model) renderOnboarding() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		Title.Render(share.Title),
		"",
		"이름을 입력해주세요",
		m.name.View(),
	)
}

func (m Model) renderHeader() string {
	return Title.Render(share.Title) + "  " + Muted.Render(m.snap.userName+"님")
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.snap.days))
	for _, d := range m.snap.days {
		label := d.Window.Label
		switch d.Status {
		case schedule.Locked:
			label += " 🔒"
		case schedule.Expired:
			label += " ⏰"
		}
		tabs = append(tabs, tabStyle(d.Status, d.Current).Render(" "+label+" "))
	}
	return strings.Join(tabs, Muted.Render("│"))
}

func (m Model) renderMissions() string {
	var b strings.Builder
	b.WriteString(Title.Render("오늘의 미션") + "\n")
	if len(m.snap.missions) == 0 {
		b.WriteString(Muted.Render("미션이 없습니다") + "\n")
	}
	for i, ms := range m.snap.missions {
		cursor := "  "
		if i == m.cursor {
			cursor = Hot.Render("› ")
		}
		line := "[ ] " + ms.Title
		if ms.Done {
			line = Done.Render("[x] " + ms.Title)
		}
		b.WriteString(cursor + line + "\n")
	}
	b.WriteString(progressBar(m.snap.progress))
	return Pane.Render(b.String())
}

func (m Model) renderStamps() string {
	var b strings.Builder
	b.WriteString(Title.Render("스탬프") + "\n")
	for _, v := range m.snap.stamps {
		state := Muted.Render(v.State.String())
		if v.State == stamp.Completed {
			state = Done.Render("완료 ✅")
		} else if v.Status != schedule.Active {
			state = Muted.Render(v.Notice)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", v.Activity.Emoji, v.Activity.Name, state)
	}
	b.WriteString(progressBar(m.snap.stampProgress))
	if m.snap.canShare {
		b.WriteString("\n" + Hot.Render("공유 준비 완료! retreat share"))
	}
	return Pane.Render(b.String())
}

func (m Model) renderTimetable() string {
	if !m.snap.hasTimetable {
		return Pane.Render(Muted.Render("시간표가 없습니다"))
	}
	tt := m.snap.timetable
	var b strings.Builder
	b.WriteString(Title.Render("시간표 "+tt.Day.TabLabel()) + "\n")
	for i, slot := range tt.Slots {
		line := slot.Time + "  " + slot.Title
		switch tt.States[i] {
		case catalog.SlotCurrent:
			line = Hot.Render("▶ " + line)
		case catalog.SlotPast:
			line = Muted.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return Pane.Render(strings.TrimSuffix(b.String(), "\n"))
}

func (m Model) renderForms() string {
	if m.snap.forms.Open {
		return Done.Render("간증문과 설문이 열렸습니다 ✍️")
	}
	return Muted.Render(fmt.Sprintf("%s (D-%d)", m.snap.forms.Notice, m.snap.forms.DaysUntil))
}
