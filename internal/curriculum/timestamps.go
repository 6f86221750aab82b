package curriculum

import (
	"encoding/json"
	"fmt"

	"coursecraft/internal/domain"
)

// Timestamp is a named marker in a lesson video. Values are never edited in
// place: an edit is a Remove followed by an Add.
type Timestamp struct {
	Time        TimeCode `json:"time"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// TimestampSet keeps a lesson's markers sorted ascending by Time.
// Markers with equal times keep their insertion order.
type TimestampSet struct {
	items []Timestamp
}

// NewTimestampSet builds a set from markers in any order
func NewTimestampSet(items ...Timestamp) TimestampSet {
	var s TimestampSet
	for _, ts := range items {
		s.Add(ts)
	}
	return s
}

// Add inserts ts after every marker at or before its time.
// Lists hold tens of entries, so a linear scan is enough.
func (s *TimestampSet) Add(ts Timestamp) {
	if ts.Time < 0 {
		ts.Time = 0
	}
	i := len(s.items)
	for i > 0 && s.items[i-1].Time > ts.Time {
		i--
	}
	s.items = append(s.items, Timestamp{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = ts
}

// Remove deletes the marker at index
func (s *TimestampSet) Remove(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("timestamp %d of %d: %w", index, len(s.items), domain.ErrIndexOutOfRange)
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// List returns a copy of the markers in ascending time order
func (s *TimestampSet) List() []Timestamp {
	out := make([]Timestamp, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of markers
func (s *TimestampSet) Len() int {
	return len(s.items)
}

// MarshalJSON emits the wire form: an array ascending by time
func (s TimestampSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON accepts markers in any order and re-sorts them
func (s *TimestampSet) UnmarshalJSON(data []byte) error {
	var items []Timestamp
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewTimestampSet(items...)
	return nil
}
