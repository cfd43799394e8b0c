package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"journal-go/internal/config"
	"journal-go/internal/database"
	"journal-go/internal/encryption"
	"journal-go/internal/journal"
	"journal-go/internal/vault"
)

// ErrNoVault is returned by vault operations when no vault is configured.
var ErrNoVault = errors.New("no vault configured")

// Options adjusts how a JournalApp is built.
type Options struct {
	// Verbose copies log output to stderr.
	Verbose bool
	// Vault selects a configured vault by name. Empty means the first one.
	Vault string
}

// JournalApp is the application layer between the CLI and the journal core.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the DB lifecycle on Close.
type JournalApp struct {
	cfg     *config.Config
	db      journal.Database
	vault   journal.Vault
	logger  journal.Logger
	clock   journal.Clock
	session *journal.SessionManager
	entries *journal.EntryStore
	photos  *journal.PhotoStore
	codec   *journal.BackupCodec
	changer *journal.PasswordChanger
	logFile *os.File
}

// NewJournalApp creates a fully wired JournalApp from the given config.
// operation identifies the CLI command being run and tags every log line.
// The caller must call Close when done.
func NewJournalApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*JournalApp, error) {
	var v journal.Vault
	if vc, ok := selectVault(cfg.Vaults, opts.Vault); ok {
		var err error
		if v, err = vault.NewVaultFromConfig(ctx, vc); err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	} else if opts.Vault != "" {
		return nil, fmt.Errorf("vault %q is not configured", opts.Vault)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstallID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if m, ok := db.(interface{ CheckMigrations() error }); ok {
		if err := m.CheckMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("database schema out of date: %w", err)
		}
	}

	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.Verbose)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := newJournalApp(cfg, db, v, &slogAdapter{l: logger}, journal.RealClock{}, journal.UUIDGenerator{})
	a.logFile = logFile

	if _, err := a.session.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return a, nil
}

// newJournalApp wires the journal core over already-built infrastructure.
func newJournalApp(cfg *config.Config, db journal.Database, v journal.Vault, logger journal.Logger, clock journal.Clock, ids journal.IDGenerator) *JournalApp {
	session := journal.NewSessionManager(journal.NewCredentialStore(db), clock, logger)
	return &JournalApp{
		cfg:     cfg,
		db:      db,
		vault:   v,
		logger:  logger,
		clock:   clock,
		session: session,
		entries: journal.NewEntryStore(db, session, logger, clock, ids),
		photos:  journal.NewPhotoStore(db, session, logger, clock, ids),
		codec:   journal.NewBackupCodec(db, logger, clock),
		changer: journal.NewPasswordChanger(session, db, logger, clock),
	}
}

func selectVault(vaults []config.VaultConfig, name string) (config.VaultConfig, bool) {
	for _, v := range vaults {
		if name == "" || v.Name == name {
			return v, true
		}
	}
	return config.VaultConfig{}, false
}

// State returns the session lock state.
func (a *JournalApp) State() journal.State {
	return a.session.State()
}

// SetupPassword sets the journal password on a fresh installation.
func (a *JournalApp) SetupPassword(ctx context.Context, password string) error {
	return a.session.SetupPassword(ctx, password)
}

// Login unlocks the journal. A wrong password returns false.
func (a *JournalApp) Login(ctx context.Context, password string) (bool, error) {
	return a.session.Login(ctx, password)
}

// Logout locks the journal.
func (a *JournalApp) Logout() {
	a.session.Logout()
}

// NewAutoLocker returns an AutoLocker for this app's session. The caller
// starts and stops it.
func (a *JournalApp) NewAutoLocker(onLock func()) *journal.AutoLocker {
	return journal.NewAutoLocker(a.session, a.logger, onLock)
}

// Today returns the current date in entry date form.
func (a *JournalApp) Today() string {
	return a.clock.Now().Format(journal.DateLayout)
}

// touch records user activity. Failing to persist the timestamp never fails
// the operation that triggered it.
func (a *JournalApp) touch(ctx context.Context) {
	if err := a.session.TouchActivity(ctx); err != nil {
		a.logger.Warn("recording activity failed", "error", err)
	}
}

// AddEntry stores a new entry and returns its ID.
func (a *JournalApp) AddEntry(ctx context.Context, in journal.NewEntry) (string, error) {
	id, err := a.entries.Add(ctx, in)
	if err != nil {
		return "", err
	}
	a.touch(ctx)
	return id, nil
}

// UpdateEntry applies a partial update to an entry.
func (a *JournalApp) UpdateEntry(ctx context.Context, id string, u journal.EntryUpdate) error {
	if err := a.entries.Update(ctx, id, u); err != nil {
		return err
	}
	a.touch(ctx)
	return nil
}

// RemoveEntry deletes an entry. Its photos are kept.
func (a *JournalApp) RemoveEntry(ctx context.Context, id string) error {
	if err := a.entries.Remove(ctx, id); err != nil {
		return err
	}
	a.touch(ctx)
	return nil
}

// GetEntry returns one decrypted entry.
func (a *JournalApp) GetEntry(ctx context.Context, id string) (*journal.Entry, error) {
	e, err := a.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.touch(ctx)
	return e, nil
}

// ListEntries returns every readable entry, newest first.
func (a *JournalApp) ListEntries(ctx context.Context) ([]*journal.Entry, error) {
	return a.readEntries(ctx, a.entries.GetAll)
}

// EntriesInRange returns entries dated within [from, to].
func (a *JournalApp) EntriesInRange(ctx context.Context, from, to string) ([]*journal.Entry, error) {
	return a.readEntries(ctx, func(ctx context.Context) ([]*journal.Entry, error) {
		return a.entries.Range(ctx, from, to)
	})
}

// SearchEntries returns entries whose title or content contains query.
func (a *JournalApp) SearchEntries(ctx context.Context, query string) ([]*journal.Entry, error) {
	return a.readEntries(ctx, func(ctx context.Context) ([]*journal.Entry, error) {
		return a.entries.Search(ctx, query)
	})
}

// EntriesByTag returns entries carrying tag.
func (a *JournalApp) EntriesByTag(ctx context.Context, tag string) ([]*journal.Entry, error) {
	return a.readEntries(ctx, func(ctx context.Context) ([]*journal.Entry, error) {
		return a.entries.FilterByTag(ctx, tag)
	})
}

// EntriesByMood returns entries with the given mood.
func (a *JournalApp) EntriesByMood(ctx context.Context, mood journal.Mood) ([]*journal.Entry, error) {
	return a.readEntries(ctx, func(ctx context.Context) ([]*journal.Entry, error) {
		return a.entries.FilterByMood(ctx, mood)
	})
}

func (a *JournalApp) readEntries(ctx context.Context, read func(context.Context) ([]*journal.Entry, error)) ([]*journal.Entry, error) {
	entries, err := read(ctx)
	if err != nil {
		return nil, err
	}
	a.touch(ctx)
	return entries, nil
}

// AddPhoto attaches a photo file to an entry and returns the photo ID.
func (a *JournalApp) AddPhoto(ctx context.Context, entryID, path, caption string) (string, error) {
	pf, err := LoadPhotoFile(path)
	if err != nil {
		return "", err
	}
	id, err := a.photos.Add(ctx, journal.NewPhoto{
		UserID:    a.cfg.UserID,
		EntryID:   entryID,
		Image:     pf.Image,
		Thumbnail: pf.Thumbnail,
		Width:     pf.Width,
		Height:    pf.Height,
		Format:    pf.Format,
		Caption:   caption,
	})
	if err != nil {
		return "", err
	}
	a.touch(ctx)
	return id, nil
}

// SetPhotoCaption replaces a photo's caption.
func (a *JournalApp) SetPhotoCaption(ctx context.Context, id, caption string) error {
	if err := a.photos.Update(ctx, id, journal.PhotoUpdate{Caption: &caption}); err != nil {
		return err
	}
	a.touch(ctx)
	return nil
}

// GetPhoto returns one decrypted photo.
func (a *JournalApp) GetPhoto(ctx context.Context, id string) (*journal.Photo, error) {
	p, err := a.photos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.touch(ctx)
	return p, nil
}

// ListPhotos returns the photos of one entry, or every photo when entryID
// is empty.
func (a *JournalApp) ListPhotos(ctx context.Context, entryID string) ([]*journal.Photo, error) {
	var photos []*journal.Photo
	var err error
	if entryID == "" {
		photos, err = a.photos.GetAll(ctx)
	} else {
		photos, err = a.photos.ListByEntry(ctx, entryID)
	}
	if err != nil {
		return nil, err
	}
	a.touch(ctx)
	return photos, nil
}

// RemovePhoto deletes a photo. Its entry is kept.
func (a *JournalApp) RemovePhoto(ctx context.Context, id string) error {
	if err := a.photos.Remove(ctx, id); err != nil {
		return err
	}
	a.touch(ctx)
	return nil
}

// ChangePassword re-keys the journal. A wrong old password returns false.
func (a *JournalApp) ChangePassword(ctx context.Context, oldPassword, newPassword string) (bool, error) {
	ok, err := a.changer.Change(ctx, oldPassword, newPassword)
	if err != nil || !ok {
		return ok, err
	}
	a.touch(ctx)
	return true, nil
}

// Wipe deletes every credential, entry, and photo and returns the session
// to the no-setup state.
func (a *JournalApp) Wipe(ctx context.Context) error {
	if err := a.db.Wipe(ctx); err != nil {
		return fmt.Errorf("wiping journal: %w", err)
	}
	a.session.Reset()
	a.logger.Warn("journal wiped")
	return nil
}

// Export writes a backup of the store to w, wrapped with age when
// passphrase is non-empty. Nothing is decrypted, so the journal may be
// locked.
func (a *JournalApp) Export(ctx context.Context, w io.Writer, passphrase string) (*journal.Document, error) {
	doc, err := a.codec.ExportAll(ctx, a.cfg.Backup.IncludePhotos)
	if err != nil {
		return nil, err
	}

	var plain bytes.Buffer
	if err := journal.Encode(&plain, doc); err != nil {
		return nil, err
	}
	if err := encryption.NewSealer(passphrase).Seal(&plain, w); err != nil {
		return nil, fmt.Errorf("sealing backup: %w", err)
	}
	return doc, nil
}

// Import reads a backup from r and replaces the stored credentials and
// records with it. If the backup was made under a different password the
// session is locked, since the live key no longer matches.
func (a *JournalApp) Import(ctx context.Context, r io.Reader, passphrase string) (*journal.Document, error) {
	var plain bytes.Buffer
	if err := encryption.NewSealer(passphrase).Open(r, &plain); err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}

	doc, err := journal.Decode(&plain)
	if err != nil {
		return nil, err
	}
	if err := a.codec.ImportAll(ctx, doc); err != nil {
		return nil, err
	}

	if !a.session.MatchesSalt(doc.Credentials.Salt) {
		if _, err := a.session.Reload(ctx); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Backup exports the store into the configured vault and returns the
// object name. Backups are named by installation and export time.
func (a *JournalApp) Backup(ctx context.Context, passphrase string) (string, error) {
	if a.vault == nil {
		return "", ErrNoVault
	}

	var buf bytes.Buffer
	doc, err := a.Export(ctx, &buf, passphrase)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s/backup-%d.json%s", a.cfg.InstallID, doc.ExportedAt, encryption.NewSealer(passphrase).Extension())
	if err := a.vault.Put(ctx, name, &buf, int64(buf.Len())); err != nil {
		return "", fmt.Errorf("storing backup: %w", err)
	}

	a.logger.Info("backup stored", "name", name, "entries", len(doc.Entries), "photos", len(doc.Photos))
	return name, nil
}

// ListBackups returns the names of this installation's backups in the
// vault, oldest first.
func (a *JournalApp) ListBackups(ctx context.Context) ([]string, error) {
	if a.vault == nil {
		return nil, ErrNoVault
	}
	return a.vault.List(ctx, a.cfg.InstallID+"/")
}

// Restore imports a backup from the vault. An age-wrapped backup needs the
// passphrase it was made with.
func (a *JournalApp) Restore(ctx context.Context, name, passphrase string) error {
	if a.vault == nil {
		return ErrNoVault
	}
	sealed := strings.HasSuffix(name, encryption.AgeExtension)
	if sealed && passphrase == "" {
		return fmt.Errorf("backup %s is passphrase-protected", name)
	}
	if !sealed {
		passphrase = ""
	}

	var buf bytes.Buffer
	if err := a.vault.Get(ctx, name, &buf); err != nil {
		return fmt.Errorf("fetching backup: %w", err)
	}

	doc, err := a.Import(ctx, &buf, passphrase)
	if err != nil {
		return err
	}
	a.logger.Info("backup restored", "name", name, "entries", len(doc.Entries), "photos", len(doc.Photos))
	return nil
}

// ValidateVault checks that the configured vault is reachable.
func (a *JournalApp) ValidateVault(ctx context.Context) error {
	if a.vault == nil {
		return ErrNoVault
	}
	return a.vault.ValidateSetup(ctx)
}

// Close locks the session and closes all resources.
func (a *JournalApp) Close() error {
	a.session.Logout()

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
