package journal_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"journal-go/internal/journal"
	"journal-go/internal/testutil"
)

func TestPasswordChanger_Change(t *testing.T) {
	ctx := context.Background()

	t.Run("re-keys every record", func(t *testing.T) {
		in := newInstallation(t)
		in.seed(t)
		before, err := journal.NewCredentialStore(in.db).Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		changer := journal.NewPasswordChanger(in.session, in.db, journal.NewNopLogger(), in.clock)
		ok, err := changer.Change(ctx, testutil.TestPassword, "new password")
		if err != nil || !ok {
			t.Fatalf("Change() = %v, %v; want true, nil", ok, err)
		}

		after, err := journal.NewCredentialStore(in.db).Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if bytes.Equal(before.Salt, after.Salt) {
			t.Error("key salt unchanged after password change")
		}
		if !in.session.MatchesSalt(after.Salt) {
			t.Error("session not rotated to the new key")
		}

		// The running session keeps working.
		entries, err := in.entries.GetAll(ctx)
		if err != nil || len(entries) != 2 {
			t.Fatalf("GetAll() = %d entries, %v; want 2", len(entries), err)
		}

		// A fresh session only accepts the new password.
		s := newSession(in.db, in.clock)
		if ok, _ := s.Login(ctx, testutil.TestPassword); ok {
			t.Error("old password still accepted")
		}
		if ok, err := s.Login(ctx, "new password"); err != nil || !ok {
			t.Fatalf("Login(new) = %v, %v", ok, err)
		}
		store := journal.NewEntryStore(in.db, s, journal.NewNopLogger(), in.clock, journal.UUIDGenerator{})
		reopened, err := store.GetAll(ctx)
		if err != nil || len(reopened) != 2 {
			t.Errorf("GetAll() under new password = %d entries, %v; want 2", len(reopened), err)
		}
		photos := journal.NewPhotoStore(in.db, s, journal.NewNopLogger(), in.clock, journal.UUIDGenerator{})
		ph, err := photos.GetAll(ctx)
		if err != nil || len(ph) != 1 || string(ph[0].Image) != "img" {
			t.Errorf("photos under new password = %+v, %v", ph, err)
		}
	})

	t.Run("wrong old password changes nothing", func(t *testing.T) {
		in := newInstallation(t)
		in.seed(t)

		changer := journal.NewPasswordChanger(in.session, in.db, journal.NewNopLogger(), in.clock)
		ok, err := changer.Change(ctx, "not it", "new password")
		if err != nil || ok {
			t.Fatalf("Change() = %v, %v; want false, nil", ok, err)
		}

		s := newSession(in.db, in.clock)
		if ok, err := s.Login(ctx, testutil.TestPassword); err != nil || !ok {
			t.Errorf("Login(old) = %v, %v; want true", ok, err)
		}
	})

	t.Run("unreadable record aborts the change", func(t *testing.T) {
		in := newInstallation(t)
		in.seed(t)
		recs, err := in.db.ListEntries(ctx)
		if err != nil {
			t.Fatalf("ListEntries() error = %v", err)
		}
		recs[len(recs)-1].Title.Ciphertext[0] ^= 0x01
		if err := in.db.PutEntry(ctx, recs[len(recs)-1]); err != nil {
			t.Fatalf("PutEntry() error = %v", err)
		}

		changer := journal.NewPasswordChanger(in.session, in.db, journal.NewNopLogger(), in.clock)
		ok, err := changer.Change(ctx, testutil.TestPassword, "new password")
		if ok || !errors.Is(err, journal.ErrDecryption) {
			t.Fatalf("Change() = %v, %v; want false, ErrDecryption", ok, err)
		}

		s := newSession(in.db, in.clock)
		if ok, err := s.Login(ctx, testutil.TestPassword); err != nil || !ok {
			t.Errorf("Login(old) after aborted change = %v, %v; want true", ok, err)
		}
		entries, err := journal.NewEntryStore(in.db, s, journal.NewNopLogger(), in.clock, journal.UUIDGenerator{}).GetAll(ctx)
		if err != nil || len(entries) != 1 {
			t.Errorf("GetAll() after aborted change = %d entries, %v; want the 1 readable entry", len(entries), err)
		}
	})
}
