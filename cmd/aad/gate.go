package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aad-go/aad/internal/aadconfig"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/quality"
	"github.com/aad-go/aad/internal/store"
	"github.com/aad-go/aad/internal/workflow"
)

func runGateCommand(env *cliEnv, args []string) int {
	fs := flag.NewFlagSet("gate", flag.ContinueOnError)
	specIDFlag := fs.String("spec", "", "spec id to evaluate (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "gate: exactly one phase name is required")
		return 2
	}
	if *specIDFlag == "" {
		fmt.Fprintln(os.Stderr, "gate: -spec is required")
		return 2
	}

	phase, ok := ids.ParsePhase(fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "gate: unknown phase %q\n", fs.Arg(0))
		return 2
	}

	specRepo := store.NewSpecRepository(env.dataDir())
	taskRepo := store.NewTaskRepository(env.dataDir())

	specID := ids.SpecID(*specIDFlag)
	spec, err := specRepo.FindByID(specID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate: %v\n", err)
		return 1
	}
	tasks, err := taskRepo.FindBySpecID(specID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate: %v\n", err)
		return 1
	}

	result := quality.CheckPhaseGate(phase, spec, tasks)
	report := quality.GenerateReport(result)

	_, tokens, err := aadconfig.LoadStyle(env.resolve(".aad/style.toml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate: load style: %v\n", err)
		return 1
	}
	styled, err := tokens.ReplaceTokens(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate: expand style tokens: %v\n", err)
		return 1
	}
	fmt.Print(styled)

	if !result.Passed {
		return 1
	}

	wf := workflow.New(string(spec.ID), spec.Name)
	wf.CurrentPhase = phase
	wf.ApprovePhase(phase)

	if wf.IsLastPhase() {
		fmt.Printf("gate: %s is the last phase, nothing to advance to\n", phase)
		return 0
	}
	if err := workflow.AutoTransition(wf); err != nil {
		fmt.Fprintf(os.Stderr, "gate: advance phase: %v\n", err)
		return 1
	}

	spec.ChangePhase(wf.CurrentPhase)
	if err := specRepo.Save(spec); err != nil {
		fmt.Fprintf(os.Stderr, "gate: save spec: %v\n", err)
		return 1
	}
	fmt.Printf("gate: advanced %s from %s to %s\n", spec.ID, phase, wf.CurrentPhase)
	return 0
}
