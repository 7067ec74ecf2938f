package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// kstOffset is the fixed offset used to stamp creation dates.
const kstOffset = 9 * time.Hour

// DateLayout is the calendar-date layout of CreatedAt.
const DateLayout = "2006-01-02"

// ID identifies a todo. Servers may send it as a JSON string or number.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as text
func (id ID) String() string {
	return string(id)
}

// Todo represents a single to-do record
type Todo struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// Date returns the calendar-date part of CreatedAt.
// Servers may send a full timestamp, so only the first 10 characters are used.
func (t Todo) Date() string {
	if len(t.CreatedAt) > len(DateLayout) {
		return t.CreatedAt[:len(DateLayout)]
	}
	return t.CreatedAt
}

// Draft is the partial todo sent on create and edit
type Draft struct {
	Text      string `json:"text"`
	Completed *bool  `json:"completed,omitempty"`
}

// NewDraft returns the create payload for text: not completed.
func NewDraft(text string) Draft {
	completed := false
	return Draft{Text: text, Completed: &completed}
}

// IsBlank reports whether text is empty after trimming whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// CreationDate returns the creation date for a todo created at now.
// The date is taken in UTC+9 regardless of the caller's own zone.
func CreationDate(now time.Time) string {
	return now.UTC().Add(kstOffset).Format(DateLayout)
}
