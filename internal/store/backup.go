package store

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aad-go/aad/internal/errs"
)

// DefaultKeepCount is the default number of backup generations retained.
const DefaultKeepCount = 10

// BackupAdapter copies files into a timestamped backup directory and
// enforces a generation-count retention policy.
type BackupAdapter struct {
	dir string
}

// NewBackupAdapter creates an adapter rooted at dir (e.g. .aad/backups).
func NewBackupAdapter(dir string) *BackupAdapter {
	return &BackupAdapter{dir: dir}
}

// Backup copies filePath into the backup directory as
// <filename>.<YYYY-MM-DDTHH-MM-SS>.bak and returns the new path.
func (a *BackupAdapter) Backup(filePath string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return "", errs.Wrap(errs.KindRepository, "source file does not exist: "+filePath, err)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", errs.Wrap(errs.KindRepository, "creating backup directory", err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	backupPath := filepath.Join(a.dir, filepath.Base(filePath)+"."+timestamp+".bak")

	if err := copyFile(filePath, backupPath); err != nil {
		return "", errs.Wrap(errs.KindRepository, "copying backup", err)
	}
	return backupPath, nil
}

// Restore copies backupPath over targetPath, creating targetPath's parent
// directory as needed.
func (a *BackupAdapter) Restore(backupPath, targetPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return errs.Wrap(errs.KindRepository, "backup file does not exist: "+backupPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return errs.Wrap(errs.KindRepository, "creating restore target directory", err)
	}
	if err := copyFile(backupPath, targetPath); err != nil {
		return errs.Wrap(errs.KindRepository, "restoring backup", err)
	}
	return nil
}

type backupEntry struct {
	path     string
	modified time.Time
}

// ListBackups returns every backup of originalName, newest first.
func (a *BackupAdapter) ListBackups(originalName string) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindRepository, "listing backups", err)
	}

	var backups []backupEntry
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, originalName) || !strings.HasSuffix(name, ".bak") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupEntry{path: filepath.Join(a.dir, name), modified: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].modified.After(backups[j].modified) })

	out := make([]string, len(backups))
	for i, b := range backups {
		out[i] = b.path
	}
	return out, nil
}

// CleanupOldBackups deletes every .bak file in the directory beyond the
// keepCount most recently modified.
func (a *BackupAdapter) CleanupOldBackups(keepCount int) error {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.KindRepository, "listing backups for cleanup", err)
	}

	var backups []backupEntry
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".bak") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupEntry{path: filepath.Join(a.dir, e.Name()), modified: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].modified.After(backups[j].modified) })

	for _, b := range backups[min(keepCount, len(backups)):] {
		if err := os.Remove(b.path); err != nil {
			return errs.Wrap(errs.KindRepository, "removing old backup", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
