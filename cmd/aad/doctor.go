package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aad-go/aad/internal/doctor"
)

func runDoctorCommand(env *cliEnv, args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOutput := fs.Bool("json", false, "emit the report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	diag := doctor.Run(env.ctx, env.config(), env.homeDir, Version)

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diag); err != nil {
			fmt.Fprintf(os.Stderr, "doctor: encode json: %v\n", err)
			return 1
		}
		return diag.ExitCode()
	}

	fmt.Printf("aad doctor report (%s)\n", diag.Timestamp.Format(time.RFC3339))
	fmt.Printf("system: %s/%s (%s)\n", diag.System.OS, diag.System.Arch, diag.System.Go)
	fmt.Println("---")
	for _, res := range diag.Results {
		marker := "PASS"
		switch res.Status {
		case "FAIL":
			marker = "FAIL"
		case "WARN":
			marker = "WARN"
		case "SKIP":
			marker = "SKIP"
		}
		fmt.Printf("[%s] %-20s %s\n", marker, res.Name, res.Message)
		if res.Detail != "" {
			fmt.Printf("       %s\n", res.Detail)
		}
	}

	return diag.ExitCode()
}
