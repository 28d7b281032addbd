package stamp

import "sort"

// Book holds every entry keyed by activity ID. The zero value is not usable;
// use NewBook.
type Book struct {
	entries map[string]Entry
}

// NewBook creates a book seeded with the given entries (typically re-read
// from storage). The map is copied.
func NewBook(entries map[string]Entry) *Book {
	b := &Book{entries: make(map[string]Entry, len(entries))}
	for id, e := range entries {
		b.entries[id] = e
	}
	return b
}

// Get returns the entry for id and whether one exists.
func (b *Book) Get(id string) (Entry, bool) {
	e, ok := b.entries[id]
	return e, ok
}

// State returns the derived state for id; NotStarted when no entry exists.
func (b *Book) State(id string) State {
	e, ok := b.entries[id]
	if !ok {
		return NotStarted
	}
	return e.State()
}

// Entries returns a copy of all entries.
func (b *Book) Entries() map[string]Entry {
	out := make(map[string]Entry, len(b.entries))
	for id, e := range b.entries {
		out[id] = e
	}
	return out
}

// IDs returns the IDs with entries, sorted.
func (b *Book) IDs() []string {
	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CompletedCount counts completed entries.
func (b *Book) CompletedCount() int {
	n := 0
	for _, e := range b.entries {
		if e.Completed {
			n++
		}
	}
	return n
}

// Configure creates or overwrites the target and option of an entry.
// optionCount is the number of missions the activity offers.
func (b *Book) Configure(id, targetName string, optionIndex, optionCount int) (Entry, error) {
	prev, exists := b.entries[id]
	if exists && prev.Completed {
		return prev, ErrCompleted
	}

	name := NormalizeName(targetName)
	if name == "" {
		return prev, &ValidationError{ActivityID: id, Reason: ReasonTargetName, Message: "이름을 입력해주세요"}
	}
	if optionIndex == NoOption || optionIndex < 0 || optionIndex >= optionCount {
		return prev, &ValidationError{ActivityID: id, Reason: ReasonOption, Message: "미션을 선택해주세요"}
	}

	next := prev
	next.TargetName = name
	next.SelectedOptionIndex = optionIndex
	b.entries[id] = next
	return next, nil
}

// AttachPhoto stores encoded image data on a configured entry. Attaching
// again replaces the previous photo.
func (b *Book) AttachPhoto(id, data string) (Entry, error) {
	prev, err := b.editable(id)
	if err != nil {
		return prev, err
	}
	if data == "" {
		return prev, &ValidationError{ActivityID: id, Reason: ReasonPhoto, Message: "사진을 선택해주세요"}
	}

	next := prev
	next.PhotoData = data
	b.entries[id] = next
	return next, nil
}

// RemovePhoto clears only the photo; the entry itself is kept.
func (b *Book) RemovePhoto(id string) (Entry, error) {
	prev, err := b.editable(id)
	if err != nil {
		return prev, err
	}

	next := prev
	next.PhotoData = ""
	b.entries[id] = next
	return next, nil
}

// Complete marks a configured entry completed. A photo is not required.
func (b *Book) Complete(id string) (Entry, error) {
	prev, err := b.editable(id)
	if err != nil {
		return prev, err
	}

	next := prev
	next.Completed = true
	b.entries[id] = next
	return next, nil
}

func (b *Book) editable(id string) (Entry, error) {
	e, ok := b.entries[id]
	if !ok {
		return Entry{}, &ValidationError{ActivityID: id, Reason: ReasonNotConfigured, Message: "먼저 미션을 설정해주세요"}
	}
	if e.Completed {
		return e, ErrCompleted
	}
	return e, nil
}
