package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Member is one person on a group roster.
type Member struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Room  string `json:"room,omitempty"`
}

// Group is a small group with its leader and members.
type Group struct {
	Name    string   `json:"name"`
	Leader  string   `json:"leader"`
	Members []Member `json:"members"`
}

// Groups is the group roster document.
type Groups struct {
	Groups []Group `json:"groups"`
}

// LoadGroups decodes the roster. On failure it returns an empty roster and a
// *DataLoadError.
func LoadGroups(path string) (Groups, error) {
	var g Groups
	if err := decodeFile(path, &g); err != nil {
		return Groups{}, err
	}
	return g, nil
}

// Match is a successful lookup.
type Match struct {
	Group  Group
	Member Member
}

// IsLeader reports whether the matched member leads the group.
func (m Match) IsLeader() bool {
	return sameName(m.Member.Name, m.Group.Leader)
}

// LookupError reports invalid search input. Field is "name" or "phone".
type LookupError struct {
	Field string
}

func (e *LookupError) Error() string {
	if e.Field == "phone" {
		return "전화번호 뒤 4자리를 입력해주세요"
	}
	return "이름을 입력해주세요"
}

// Find locates a member by name and the last four digits of their phone.
// ok is false when nobody matches.
func (g Groups) Find(name, last4 string) (m Match, ok bool, err error) {
	name = strings.TrimSpace(name)
	last4 = strings.TrimSpace(last4)
	if name == "" {
		return Match{}, false, &LookupError{Field: "name"}
	}
	if !isFourDigits(last4) {
		return Match{}, false, &LookupError{Field: "phone"}
	}

	for _, grp := range g.Groups {
		for _, mem := range grp.Members {
			if sameName(mem.Name, name) && LastFourDigits(mem.Phone) == last4 {
				return Match{Group: grp, Member: mem}, true, nil
			}
		}
	}
	return Match{}, false, nil
}

// LastFourDigits strips every non-digit and returns the last four digits.
func LastFourDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func sameName(a, b string) bool {
	return norm.NFC.String(strings.TrimSpace(a)) == norm.NFC.String(strings.TrimSpace(b))
}

// String renders a match for text output.
func (m Match) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n조장: %s\n", m.Group.Name, m.Group.Leader)
	if m.Member.Room != "" {
		fmt.Fprintf(&b, "방 배정: %s\n", m.Member.Room)
	}
	b.WriteString("조원 명단:\n")
	for _, mem := range m.Group.Members {
		marker := "  "
		if sameName(mem.Name, m.Member.Name) {
			marker = "▶ "
		}
		line := marker + mem.Name
		if sameName(mem.Name, m.Group.Leader) {
			line += " (조장)"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
