package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aad-go/aad/internal/bus"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
	"github.com/aad-go/aad/internal/orchestrator"
	"github.com/aad-go/aad/internal/store"
)

func runOrchestrateCommand(env *cliEnv, args []string) int {
	fs := flag.NewFlagSet("orchestrate", flag.ContinueOnError)
	resume := fs.Bool("resume", false, "resume from the last saved orchestrator state")
	dryRun := fs.Bool("dry-run", false, "print the execution plan without running anything")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	specIDs := fs.Args()
	if len(specIDs) == 0 && !*resume {
		fmt.Fprintln(os.Stderr, "orchestrate: at least one spec id is required (or use -resume)")
		return 2
	}

	specRepo := store.NewSpecRepository(env.dataDir())
	statePath := env.resolve(".aad/orchestration/state.json")

	var state *store.OrchestratorState
	if *resume {
		loaded, err := store.RestoreState(statePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "orchestrate: resume failed: %v\n", err)
			return 1
		}
		state = loaded
		specIDs = state.SpecIDs
	} else {
		state = store.NewOrchestratorState(specIDs, time.Now().UTC())
	}

	if *dryRun {
		plan, err := store.PrintExecutionPlan(state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "orchestrate: %v\n", err)
			return 1
		}
		fmt.Print(plan)
		return 0
	}

	escalationHandler := store.NewEscalationHandler(env.escalationDir())
	escalate := func(sess model.Session, level, reason string) (string, error) {
		lvl := parseEscalationLevel(level)
		e := store.NewEscalation(sess.ID, lvl, reason).WithContext(string(sess.SpecID), sess.Phase.String())
		return escalationHandler.Handle(e)
	}

	b := bus.New()
	orch := orchestrator.New(env.config().ToOrchestratorConfig(), b, logger(env), orchestrator.Hooks{}, escalate, env.telemetry.Tracer)

	for _, rawID := range specIDs {
		specID := ids.SpecID(rawID)
		spec, err := specRepo.FindByID(specID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "orchestrate: spec %s: %v\n", rawID, err)
			return 1
		}
		sessID := ids.NewSessionID()
		if err := orch.RegisterSpec(sessID, spec.ID, spec.Phase); err != nil {
			fmt.Fprintf(os.Stderr, "orchestrate: register %s: %v\n", rawID, err)
			return 1
		}
	}

	started, err := orch.StartAllSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrate: start: %v\n", err)
		return 1
	}
	env.logger.Info("orchestrate started sessions", "count", len(started))

	if err := orch.MonitorLoop(env.ctx); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrate: monitor: %v\n", err)
		return 1
	}

	progress := orch.CalculateProgress()
	fmt.Printf("orchestrate: %d/%d sessions terminal (%.0f%% complete)\n",
		progress.Counts[ids.SessionCompleted]+progress.Counts[ids.SessionFailed]+progress.Counts[ids.SessionTimedOut],
		progress.Total, progress.Percent)

	if err := store.SaveState(state, statePath); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrate: save state: %v\n", err)
		return 1
	}

	if progress.Counts[ids.SessionFailed] > 0 || progress.Counts[ids.SessionTimedOut] > 0 {
		return 1
	}
	return 0
}

func parseEscalationLevel(level string) store.EscalationLevel {
	switch level {
	case "Critical":
		return store.EscalationCritical
	case "Error":
		return store.EscalationError
	default:
		return store.EscalationWarning
	}
}
