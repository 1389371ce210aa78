// Package docstore stages quotation supporting documents on disk and
// promotes them into the public asset tree only after the owning database
// transaction commits.
package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes uploads in two phases: Stage places the bytes under a
// staging directory; Commit renames them into the final per-RFP, per-vendor
// location. A rollback simply discards the staged file, so the asset tree
// never contains documents for a submission that failed to persist.
type Store struct {
	assetRoot   string
	stagingRoot string
	now         func() time.Time
}

// New constructs a Store rooted at assetRoot, staging under stagingRoot.
func New(assetRoot, stagingRoot string) *Store {
	return &Store{assetRoot: assetRoot, stagingRoot: stagingRoot, now: time.Now}
}

// Staged is a file written to the staging area, pending Commit or Discard.
type Staged struct {
	store      *Store
	stagedPath string
	finalDir   string
	fileName   string
}

// Location returns the path the document will occupy after Commit,
// relative to the asset root.
func (s *Staged) Location() string {
	return filepath.Join(s.finalDir, s.fileName)
}

// Stage writes the upload into the staging area. The final filename is
// date-prefixed, matching the layout {rfpId}/{vendorId}/{date}-{name} where
// rfpId is the display identifier (RFP-YYYY-MM-DD-NNNN).
func (st *Store) Stage(src io.Reader, rfpID string, vendorID uuid.UUID, documentName string) (*Staged, error) {
	fileName := fmt.Sprintf("%s-%s", st.now().Format("2006-01-02"), sanitize(documentName))
	finalDir := filepath.Join(sanitize(rfpID), vendorID.String())

	if err := os.MkdirAll(st.stagingRoot, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create staging dir: %w", err)
	}
	stagedPath := filepath.Join(st.stagingRoot, uuid.NewString())
	out, err := os.Create(stagedPath)
	if err != nil {
		return nil, fmt.Errorf("docstore: stage %s: %w", documentName, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(stagedPath)
		return nil, fmt.Errorf("docstore: write %s: %w", documentName, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(stagedPath)
		return nil, fmt.Errorf("docstore: close %s: %w", documentName, err)
	}
	return &Staged{store: st, stagedPath: stagedPath, finalDir: finalDir, fileName: fileName}, nil
}

// Commit moves the staged file into the asset tree.
func (s *Staged) Commit() error {
	dir := filepath.Join(s.store.assetRoot, s.finalDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("docstore: create asset dir: %w", err)
	}
	if err := os.Rename(s.stagedPath, filepath.Join(dir, s.fileName)); err != nil {
		return fmt.Errorf("docstore: commit %s: %w", s.fileName, err)
	}
	return nil
}

// Discard removes the staged file. Safe to call after Commit.
func (s *Staged) Discard() {
	_ = os.Remove(s.stagedPath)
}

// CleanupStaged removes staged files older than the retention window.
// Run periodically; crashes between Stage and Commit leave orphans behind.
func (st *Store) CleanupStaged(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(st.stagingRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := st.now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(st.stagingRoot, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "document"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
