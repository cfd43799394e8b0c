package journal_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"journal-go/internal/journal"
	"journal-go/internal/testutil"
)

type entryFixture struct {
	db    journal.Database
	keys  *testutil.StaticKeys
	clock *testutil.StubClock
	log   *testutil.RecordingLogger
	store *journal.EntryStore
}

func newEntryFixture(t *testing.T) *entryFixture {
	t.Helper()
	f := &entryFixture{
		db:    testutil.NewTestDatabase(t),
		keys:  testutil.NewStaticKeys(t, "pw"),
		clock: testutil.FixedClock(),
		log:   testutil.NewRecordingLogger(),
	}
	f.store = journal.NewEntryStore(f.db, f.keys, f.log, f.clock, testutil.NewStubIDGenerator())
	return f
}

func (f *entryFixture) add(t *testing.T, in journal.NewEntry) string {
	t.Helper()
	id, err := f.store.Add(context.Background(), in)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return id
}

// corrupt flips a bit in one sealed field of a stored entry.
func (f *entryFixture) corrupt(t *testing.T, id string, pick func(*journal.EntryRecord) []byte) {
	t.Helper()
	ctx := context.Background()
	rec, err := f.db.GetEntry(ctx, id)
	if err != nil || rec == nil {
		t.Fatalf("GetEntry(%s) = %v, %v", id, rec, err)
	}
	pick(rec)[0] ^= 0x01
	if err := f.db.PutEntry(ctx, rec); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}
}

var ignoreTimes = cmpopts.IgnoreFields(journal.Entry{}, "CreatedAt", "UpdatedAt")

func TestEntryStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)

	in := journal.NewEntry{
		Title:   "Day One",
		Content: "Started a journal.",
		Tags:    []string{"first", "meta"},
		Mood:    journal.MoodExcited,
		Date:    "2024-01-15",
	}
	id := f.add(t, in)
	if id != "id-1" {
		t.Errorf("Add() id = %q, want %q", id, "id-1")
	}

	got, err := f.store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := &journal.Entry{
		ID:      id,
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
		Mood:    in.Mood,
		Date:    in.Date,
	}
	if diff := cmp.Diff(want, got, ignoreTimes); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}
	if !got.CreatedAt.Equal(f.clock.Now()) || !got.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, f.clock.Now())
	}
}

func TestEntryStore_AddSealsText(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)

	id := f.add(t, journal.NewEntry{Title: "secret title", Content: "secret content", Tags: []string{"secret-tag"}, Mood: journal.MoodSad, Date: "2024-01-15"})

	rec, err := f.db.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	for _, field := range [][]byte{rec.Title.Ciphertext, rec.Content.Ciphertext, rec.Tags.Ciphertext} {
		if bytes.Contains(field, []byte("secret")) {
			t.Errorf("stored ciphertext contains plaintext: %q", field)
		}
	}
	if bytes.Equal(rec.Title.Nonce, rec.Content.Nonce) || bytes.Equal(rec.Content.Nonce, rec.Tags.Nonce) {
		t.Error("fields of one entry share a nonce")
	}
	if rec.Mood != journal.MoodSad || rec.Date != "2024-01-15" {
		t.Errorf("plaintext columns = %q/%q, want sad/2024-01-15", rec.Mood, rec.Date)
	}
}

func TestEntryStore_AddValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   journal.NewEntry
	}{
		{name: "unknown mood", in: journal.NewEntry{Title: "t", Mood: "meh", Date: "2024-01-15"}},
		{name: "bad date", in: journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "15/01/2024"}},
		{name: "missing date", in: journal.NewEntry{Title: "t", Mood: journal.MoodHappy}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEntryFixture(t)
			if _, err := f.store.Add(ctx, tt.in); !errors.Is(err, journal.ErrInvalidRecord) {
				t.Errorf("Add() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestEntryStore_Locked(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)
	id := f.add(t, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"})

	f.keys.Key = nil

	if _, err := f.store.Add(ctx, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"}); !errors.Is(err, journal.ErrNotAuthenticated) {
		t.Errorf("Add() error = %v, want ErrNotAuthenticated", err)
	}
	title := "x"
	if err := f.store.Update(ctx, id, journal.EntryUpdate{Title: &title}); !errors.Is(err, journal.ErrNotAuthenticated) {
		t.Errorf("Update() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := f.store.GetByID(ctx, id); !errors.Is(err, journal.ErrNotAuthenticated) {
		t.Errorf("GetByID() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := f.store.GetAll(ctx); !errors.Is(err, journal.ErrNotAuthenticated) {
		t.Errorf("GetAll() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := f.store.Search(ctx, "t"); !errors.Is(err, journal.ErrNotAuthenticated) {
		t.Errorf("Search() error = %v, want ErrNotAuthenticated", err)
	}

	// Removal needs no key.
	if err := f.store.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	rec, err := f.db.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if rec != nil {
		t.Error("entry still stored after Remove()")
	}
}

func TestEntryStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps fields not carried by the update", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "Old title", Content: "Body", Tags: []string{"a"}, Mood: journal.MoodHappy, Date: "2024-01-15"})

		f.clock.Advance(time.Hour)
		title := "New title"
		mood := journal.MoodGrateful
		if err := f.store.Update(ctx, id, journal.EntryUpdate{Title: &title, Mood: &mood}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := f.store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		want := &journal.Entry{ID: id, Title: "New title", Content: "Body", Tags: []string{"a"}, Mood: journal.MoodGrateful, Date: "2024-01-15"}
		if diff := cmp.Diff(want, got, ignoreTimes); diff != "" {
			t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
		}
		if !got.UpdatedAt.Equal(f.clock.Now()) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, f.clock.Now())
		}
		if !got.CreatedAt.Equal(f.clock.Now().Add(-time.Hour)) {
			t.Errorf("CreatedAt = %v, want unchanged", got.CreatedAt)
		}
	})

	t.Run("clears tags with an empty list", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Tags: []string{"a", "b"}, Mood: journal.MoodHappy, Date: "2024-01-15"})

		empty := []string{}
		if err := f.store.Update(ctx, id, journal.EntryUpdate{Tags: &empty}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := f.store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if len(got.Tags) != 0 {
			t.Errorf("Tags = %v, want empty", got.Tags)
		}
	})

	t.Run("reseals every field with fresh nonces", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Content: "c", Tags: []string{"x"}, Mood: journal.MoodHappy, Date: "2024-01-15"})

		before, err := f.db.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}

		title := "t2"
		if err := f.store.Update(ctx, id, journal.EntryUpdate{Title: &title}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		after, err := f.db.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}
		if bytes.Equal(before.Title.Nonce, after.Title.Nonce) {
			t.Error("title nonce reused")
		}
		if bytes.Equal(before.Content.Nonce, after.Content.Nonce) {
			t.Error("content nonce reused")
		}
		if bytes.Equal(before.Tags.Nonce, after.Tags.Nonce) {
			t.Error("tags nonce reused")
		}
	})

	t.Run("fails when a carried field cannot be opened", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Content: "c", Mood: journal.MoodHappy, Date: "2024-01-15"})
		f.corrupt(t, id, func(r *journal.EntryRecord) []byte { return r.Content.Ciphertext })

		before, err := f.db.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}

		title := "t2"
		err = f.store.Update(ctx, id, journal.EntryUpdate{Title: &title})
		var decErr *journal.DecryptionError
		if !errors.As(err, &decErr) {
			t.Fatalf("Update() error = %v, want *DecryptionError", err)
		}
		if decErr.Field != "content" || decErr.RecordID != id {
			t.Errorf("DecryptionError = %+v, want content of %s", decErr, id)
		}
		if !errors.Is(err, journal.ErrDecryption) || !errors.Is(err, journal.ErrAuthentication) {
			t.Errorf("Update() error = %v, want ErrDecryption wrapping ErrAuthentication", err)
		}

		after, err := f.db.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}
		if !bytes.Equal(before.Title.Ciphertext, after.Title.Ciphertext) {
			t.Error("failed Update() modified the stored record")
		}
	})

	t.Run("replacing the corrupt field succeeds", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Content: "c", Mood: journal.MoodHappy, Date: "2024-01-15"})
		f.corrupt(t, id, func(r *journal.EntryRecord) []byte { return r.Content.Ciphertext })

		content := "rewritten"
		if err := f.store.Update(ctx, id, journal.EntryUpdate{Content: &content}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := f.store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Content != content {
			t.Errorf("Content = %q, want %q", got.Content, content)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		f := newEntryFixture(t)
		title := "t"
		if err := f.store.Update(ctx, "nope", journal.EntryUpdate{Title: &title}); !errors.Is(err, journal.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid mood", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"})
		mood := journal.Mood("bored")
		if err := f.store.Update(ctx, id, journal.EntryUpdate{Mood: &mood}); !errors.Is(err, journal.ErrInvalidRecord) {
			t.Errorf("Update() error = %v, want ErrInvalidRecord", err)
		}
	})
}

func TestEntryStore_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("missing entry", func(t *testing.T) {
		f := newEntryFixture(t)
		if _, err := f.store.GetByID(ctx, "nope"); !errors.Is(err, journal.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"})

		f.keys.Key = testutil.NewStaticKeys(t, "other").Key
		_, err := f.store.GetByID(ctx, id)
		var decErr *journal.DecryptionError
		if !errors.As(err, &decErr) || decErr.Field != "title" {
			t.Errorf("GetByID() error = %v, want *DecryptionError for title", err)
		}
	})

	t.Run("unknown schema version", func(t *testing.T) {
		f := newEntryFixture(t)
		id := f.add(t, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"})
		rec, err := f.db.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}
		rec.SchemaVersion = journal.SchemaVersion + 1
		if err := f.db.PutEntry(ctx, rec); err != nil {
			t.Fatalf("PutEntry() error = %v", err)
		}

		if _, err := f.store.GetByID(ctx, id); !errors.Is(err, journal.ErrFormat) {
			t.Errorf("GetByID() error = %v, want ErrFormat", err)
		}
	})
}

func TestEntryStore_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("newest date first", func(t *testing.T) {
		f := newEntryFixture(t)
		f.add(t, journal.NewEntry{Title: "middle", Mood: journal.MoodHappy, Date: "2024-01-10"})
		f.add(t, journal.NewEntry{Title: "newest", Mood: journal.MoodHappy, Date: "2024-02-01"})
		f.add(t, journal.NewEntry{Title: "oldest", Mood: journal.MoodHappy, Date: "2023-12-31"})

		got, err := f.store.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if diff := cmp.Diff([]string{"newest", "middle", "oldest"}, titles(got)); diff != "" {
			t.Errorf("GetAll() order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("skips unreadable entries", func(t *testing.T) {
		f := newEntryFixture(t)
		f.add(t, journal.NewEntry{Title: "good", Mood: journal.MoodHappy, Date: "2024-01-10"})
		bad := f.add(t, journal.NewEntry{Title: "bad", Mood: journal.MoodHappy, Date: "2024-01-11"})
		f.corrupt(t, bad, func(r *journal.EntryRecord) []byte { return r.Tags.Ciphertext })

		got, err := f.store.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if diff := cmp.Diff([]string{"good"}, titles(got)); diff != "" {
			t.Errorf("GetAll() mismatch (-want +got):\n%s", diff)
		}
		if !f.log.Contains("skipping unreadable entry") {
			t.Errorf("expected a warning for the skipped entry, got %v", f.log.Entries())
		}
	})

	t.Run("empty store", func(t *testing.T) {
		f := newEntryFixture(t)
		got, err := f.store.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("GetAll() returned %d entries, want 0", len(got))
		}
	})
}

func TestEntryStore_Range(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)
	f.add(t, journal.NewEntry{Title: "new year", Mood: journal.MoodHappy, Date: "2024-01-01"})
	f.add(t, journal.NewEntry{Title: "mid month", Mood: journal.MoodHappy, Date: "2024-01-10"})
	f.add(t, journal.NewEntry{Title: "end of month", Mood: journal.MoodHappy, Date: "2024-01-31"})
	f.add(t, journal.NewEntry{Title: "february", Mood: journal.MoodHappy, Date: "2024-02-01"})

	got, err := f.store.Range(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if diff := cmp.Diff([]string{"end of month", "mid month", "new year"}, titles(got)); diff != "" {
		t.Errorf("Range() mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.store.Range(ctx, "January", "2024-01-31"); !errors.Is(err, journal.ErrInvalidRecord) {
		t.Errorf("Range() error = %v, want ErrInvalidRecord", err)
	}
}

func TestEntryStore_SearchAndFilter(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)
	f.add(t, journal.NewEntry{Title: "Morning run", Content: "Felt great", Tags: []string{"health"}, Mood: journal.MoodHappy, Date: "2024-01-03"})
	f.add(t, journal.NewEntry{Title: "Work", Content: "Long MEETING day", Tags: []string{"work"}, Mood: journal.MoodAnxious, Date: "2024-01-02"})
	f.add(t, journal.NewEntry{Title: "Meeting notes", Content: "", Tags: []string{"work", "health"}, Mood: journal.MoodHappy, Date: "2024-01-01"})

	t.Run("search matches title or content ignoring case", func(t *testing.T) {
		got, err := f.store.Search(ctx, "meeting")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if diff := cmp.Diff([]string{"Work", "Meeting notes"}, titles(got)); diff != "" {
			t.Errorf("Search() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("filter by tag", func(t *testing.T) {
		got, err := f.store.FilterByTag(ctx, "health")
		if err != nil {
			t.Fatalf("FilterByTag() error = %v", err)
		}
		if diff := cmp.Diff([]string{"Morning run", "Meeting notes"}, titles(got)); diff != "" {
			t.Errorf("FilterByTag() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("filter by mood", func(t *testing.T) {
		got, err := f.store.FilterByMood(ctx, journal.MoodAnxious)
		if err != nil {
			t.Fatalf("FilterByMood() error = %v", err)
		}
		if diff := cmp.Diff([]string{"Work"}, titles(got)); diff != "" {
			t.Errorf("FilterByMood() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEntryStore_Remove(t *testing.T) {
	ctx := context.Background()
	f := newEntryFixture(t)
	id := f.add(t, journal.NewEntry{Title: "t", Mood: journal.MoodHappy, Date: "2024-01-15"})

	if err := f.store.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := f.store.GetByID(ctx, id); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("GetByID() after Remove error = %v, want ErrNotFound", err)
	}
	if err := f.store.Remove(ctx, id); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func titles(entries []*journal.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}
