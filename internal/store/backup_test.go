package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aad-go/aad/internal/store"
)

func TestBackupAdapter_BackupAndRestoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "config.toml")
	if err := os.WriteFile(source, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatalf("seed source file: %v", err)
	}

	adapter := store.NewBackupAdapter(filepath.Join(root, "backups"))
	backupPath, err := adapter.Backup(source)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if filepath.Ext(backupPath) != ".bak" {
		t.Fatalf("expected .bak suffix, got %s", backupPath)
	}

	target := filepath.Join(root, "restored", "config.toml")
	if err := adapter.Restore(backupPath, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(got) != "value = 1\n" {
		t.Fatalf("unexpected restored content: %q", got)
	}
}

func TestBackupAdapter_BackupFailsWhenSourceMissing(t *testing.T) {
	adapter := store.NewBackupAdapter(t.TempDir())
	if _, err := adapter.Backup(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected backup of missing source to fail")
	}
}

func TestBackupAdapter_RestoreFailsWhenBackupMissing(t *testing.T) {
	adapter := store.NewBackupAdapter(t.TempDir())
	target := filepath.Join(t.TempDir(), "out.toml")
	if err := adapter.Restore(filepath.Join(t.TempDir(), "missing.bak"), target); err == nil {
		t.Fatal("expected restore of missing backup to fail")
	}
}

func TestBackupAdapter_ListBackupsNewestFirst(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "data.json")
	if err := os.WriteFile(source, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	backupDir := filepath.Join(root, "backups")
	adapter := store.NewBackupAdapter(backupDir)

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := adapter.Backup(source)
		if err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
		paths = append(paths, p)
		time.Sleep(1100 * time.Millisecond)
	}

	listed, err := adapter.ListBackups("data.json")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(listed))
	}
	if listed[0] != paths[2] {
		t.Fatalf("expected newest backup first, got %v", listed)
	}
}

func TestBackupAdapter_CleanupOldBackupsRetainsKeepCount(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "data.json")
	if err := os.WriteFile(source, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	backupDir := filepath.Join(root, "backups")
	adapter := store.NewBackupAdapter(backupDir)

	for i := 0; i < 5; i++ {
		if _, err := adapter.Backup(source); err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
		time.Sleep(1100 * time.Millisecond)
	}

	if err := adapter.CleanupOldBackups(2); err != nil {
		t.Fatalf("CleanupOldBackups: %v", err)
	}
	remaining, err := adapter.ListBackups("data.json")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 backups retained, got %d", len(remaining))
	}
}
