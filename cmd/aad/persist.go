package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aad-go/aad/internal/store"
)

func runPersistCommand(env *cliEnv, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "persist: usage: persist <save|restore|list> <name> [timestamp]")
		return 2
	}
	sub, name := args[0], args[1]
	backup := store.NewBackupAdapter(env.backupDir())
	target := filepath.Join(env.dataDir(), name)

	switch sub {
	case "save":
		path, err := backup.Backup(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "persist save: %v\n", err)
			return 1
		}
		if err := backup.CleanupOldBackups(env.config().MaxBackupGenerations); err != nil {
			fmt.Fprintf(os.Stderr, "persist save: cleanup: %v\n", err)
			return 1
		}
		fmt.Printf("persist save: wrote %s\n", path)
		return 0

	case "restore":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "persist restore: a timestamp suffix is required")
			return 2
		}
		backupName := fmt.Sprintf("%s.%s.bak", name, args[2])
		backupPath := filepath.Join(env.backupDir(), backupName)
		if err := backup.Restore(backupPath, target); err != nil {
			fmt.Fprintf(os.Stderr, "persist restore: %v\n", err)
			return 1
		}
		fmt.Printf("persist restore: restored %s from %s\n", target, backupPath)
		return 0

	case "list":
		backups, err := backup.ListBackups(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "persist list: %v\n", err)
			return 1
		}
		if len(backups) == 0 {
			fmt.Println("persist list: no backups found")
			return 0
		}
		for _, b := range backups {
			fmt.Println(filepath.Base(b))
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "persist: unknown subcommand %q\n", sub)
		return 2
	}
}
