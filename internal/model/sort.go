package model

import "fmt"

// SortMode selects how the list is ordered or filtered
type SortMode string

const (
	SortAll          SortMode = "all"
	SortLatest       SortMode = "latest"
	SortOldest       SortMode = "oldest"
	SortCompleted    SortMode = "completed"
	SortNotCompleted SortMode = "notCompleted"
)

// SortModes lists every mode in display order
func SortModes() []SortMode {
	return []SortMode{SortAll, SortLatest, SortOldest, SortCompleted, SortNotCompleted}
}

// ParseSortMode parses the wire value of a sort mode.
// An empty string means SortAll.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortAll, nil
	}
	for _, m := range SortModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Next returns the mode after m, wrapping around
func (m SortMode) Next() SortMode {
	modes := SortModes()
	for i, mode := range modes {
		if mode == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return SortAll
}

// Label returns the display name for a mode
func (m SortMode) Label() string {
	switch m {
	case SortAll:
		return "All"
	case SortLatest:
		return "Latest"
	case SortOldest:
		return "Oldest"
	case SortCompleted:
		return "Completed"
	case SortNotCompleted:
		return "Not completed"
	default:
		return "Unknown"
	}
}
