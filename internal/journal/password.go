package journal

import (
	"context"
	"fmt"

	"journal-go/internal/encryption"
)

// PasswordChanger rotates the journal password. Every entry and photo is
// opened under the old key and re-sealed under a key derived from the new
// password and a fresh salt, and the new credential record is written, all
// in one transaction. Any record that cannot be opened aborts the change
// and leaves the store untouched.
type PasswordChanger struct {
	session *SessionManager
	db      Database
	logger  Logger
	clock   Clock
}

// NewPasswordChanger creates a PasswordChanger.
func NewPasswordChanger(session *SessionManager, db Database, logger Logger, clock Clock) *PasswordChanger {
	return &PasswordChanger{session: session, db: db, logger: logger, clock: clock}
}

// Change verifies oldPassword and re-keys the store. It returns false with a
// nil error when oldPassword is wrong.
func (p *PasswordChanger) Change(ctx context.Context, oldPassword, newPassword string) (bool, error) {
	creds, err := NewCredentialStore(p.db).Load(ctx)
	if err != nil {
		return false, err
	}
	if creds == nil || !creds.IsSetup {
		return false, nil
	}
	ok, err := encryption.VerifyPassword(oldPassword, creds.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("stored password hash: %w", ErrFormat)
	}
	if !ok {
		p.logger.Warn("password change rejected")
		return false, nil
	}

	oldKey := encryption.DeriveKey(oldPassword, creds.Salt)
	defer encryption.Wipe(oldKey)

	newSalt, err := encryption.GenerateSalt()
	if err != nil {
		return false, err
	}
	newHash, err := encryption.HashPassword(newPassword, nil)
	if err != nil {
		return false, err
	}
	newKey := encryption.DeriveKey(newPassword, newSalt)

	var entries, photos int
	err = p.db.WithTx(ctx, func(tx Database) error {
		var err error
		if entries, err = rekeyEntries(ctx, tx, oldKey, newKey); err != nil {
			return err
		}
		if photos, err = rekeyPhotos(ctx, tx, oldKey, newKey); err != nil {
			return err
		}
		return NewCredentialStore(tx).Save(ctx, &Credentials{
			Salt:         newSalt,
			PasswordHash: newHash,
			IsSetup:      true,
			LastActivity: p.clock.Now().UnixMilli(),
		})
	})
	if err != nil {
		encryption.Wipe(newKey)
		return false, fmt.Errorf("changing password: %w", err)
	}

	p.session.rotate(newKey, newSalt)
	p.logger.Info("password changed", "entries", entries, "photos", photos)
	return true, nil
}

func rekeyEntries(ctx context.Context, tx Database, oldKey, newKey []byte) (int, error) {
	recs, err := tx.ListEntries(ctx)
	if err != nil {
		return 0, storageErr("listing entries", err)
	}
	for _, rec := range recs {
		e, err := openEntry(oldKey, rec)
		if err != nil {
			return 0, err
		}
		if err := sealEntry(newKey, rec, e.Title, e.Content, e.Tags); err != nil {
			return 0, err
		}
		if err := tx.PutEntry(ctx, rec); err != nil {
			return 0, storageErr("storing entry", err)
		}
	}
	return len(recs), nil
}

func rekeyPhotos(ctx context.Context, tx Database, oldKey, newKey []byte) (int, error) {
	recs, err := tx.ListPhotos(ctx)
	if err != nil {
		return 0, storageErr("listing photos", err)
	}
	for _, rec := range recs {
		ph, err := openPhoto(oldKey, rec)
		if err != nil {
			return 0, err
		}
		if err := sealPhoto(newKey, rec, ph.Image, ph.Thumbnail); err != nil {
			return 0, err
		}
		if err := tx.PutPhoto(ctx, rec); err != nil {
			return 0, storageErr("storing photo", err)
		}
	}
	return len(recs), nil
}
