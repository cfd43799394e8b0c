package journal

import (
	"fmt"
	"time"

	"journal-go/internal/encryption"
)

// SchemaVersion is written into every stored entry and photo record.
const SchemaVersion = 1

// DateLayout is the calendar-date format of Entry.Date.
const DateLayout = "2006-01-02"

// Mood is the plaintext mood category of an entry.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodSad      Mood = "sad"
	MoodNeutral  Mood = "neutral"
	MoodExcited  Mood = "excited"
	MoodAnxious  Mood = "anxious"
	MoodGrateful Mood = "grateful"
	MoodAngry    Mood = "angry"
)

// Moods lists every valid mood in display order.
var Moods = []Mood{MoodHappy, MoodSad, MoodNeutral, MoodExcited, MoodAnxious, MoodGrateful, MoodAngry}

// Valid reports whether m is one of the known moods.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMood converts s to a Mood, rejecting unknown values.
func ParseMood(s string) (Mood, error) {
	m := Mood(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood %q: %w", s, ErrInvalidRecord)
	}
	return m, nil
}

// ValidateDate checks that s is a calendar date in DateLayout form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("date %q: %w", s, ErrInvalidRecord)
	}
	return nil
}

// Entry is a decrypted journal entry.
type Entry struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	Mood      Mood
	Date      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry holds the caller-supplied fields of an entry being created.
type NewEntry struct {
	Title   string
	Content string
	Tags    []string
	Mood    Mood
	Date    string
}

// EntryUpdate is a partial update. Nil fields keep their stored value.
type EntryUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
	Mood    *Mood
	Date    *string
}

// EntryRecord is the at-rest form of an entry.
type EntryRecord struct {
	SchemaVersion int
	ID            string
	Title         encryption.Field
	Content       encryption.Field
	Tags          encryption.Field
	Mood          Mood
	Date          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Photo is a decrypted photo attached to an entry.
type Photo struct {
	ID        string
	UserID    string
	EntryID   string
	Image     []byte
	Thumbnail []byte
	Width     int
	Height    int
	Size      int64
	Format    string
	Caption   string
	CreatedAt time.Time
}

// NewPhoto holds the caller-supplied fields of a photo being added.
// Size is taken from len(Image).
type NewPhoto struct {
	UserID    string
	EntryID   string
	Image     []byte
	Thumbnail []byte
	Width     int
	Height    int
	Format    string
	Caption   string
}

// PhotoUpdate is a partial update. Nil fields keep their stored value.
// Replacing Image also replaces the recorded size.
type PhotoUpdate struct {
	Image     []byte
	Thumbnail []byte
	Width     *int
	Height    *int
	Format    *string
	Caption   *string
}

// PhotoRecord is the at-rest form of a photo.
type PhotoRecord struct {
	SchemaVersion int
	ID            string
	UserID        string
	EntryID       string
	Image         encryption.Field
	Thumbnail     encryption.Field
	Width         int
	Height        int
	Size          int64
	Format        string
	Caption       string
	CreatedAt     time.Time
}

// Credentials is the single per-installation credential record. It is stored
// in the clear: Salt feeds key derivation and PasswordHash only verifies.
type Credentials struct {
	Salt         []byte `json:"salt"`
	PasswordHash string `json:"passwordHash"`
	IsSetup      bool   `json:"isSetup"`
	LastActivity int64  `json:"lastActivity"`
}
