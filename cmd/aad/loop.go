package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/loopengine"
	"github.com/aad-go/aad/internal/store"
)

func runLoopCommand(env *cliEnv, args []string) int {
	fs := flag.NewFlagSet("loop", flag.ContinueOnError)
	resume := fs.Bool("resume", false, "resume from the last saved loop state")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "loop: exactly one spec id is required")
		return 2
	}
	specID := ids.SpecID(fs.Arg(0))
	statePath := env.resolve(".aad/loop-state.json")

	var state *loopengine.LoopState
	if *resume {
		loaded, err := loopengine.Load(statePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loop: resume failed: %v\n", err)
			return 1
		}
		state = loaded
	} else {
		state = loopengine.New(specID)
	}

	taskRepo := store.NewTaskRepository(env.dataDir())
	tasks, err := taskRepo.FindBySpecID(specID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loop: load tasks: %v\n", err)
		return 1
	}

	execute := func(ctx context.Context, taskID ids.TaskID) (bool, error) {
		task, err := taskRepo.FindByID(taskID)
		if err != nil {
			return false, err
		}
		task.ChangeStatus(ids.StatusCompleted)
		if err := taskRepo.Save(task); err != nil {
			return false, err
		}
		env.logger.Info("task completed", "task_id", taskID, "spec_id", specID)
		return true, nil
	}

	statuses, err := loopengine.RunLoop(env.ctx, state, tasks, env.config().MaxRetryAttempts, statePath, execute)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Printf("loop: interrupted, state saved for resume (%d tasks still pending)\n", state.PendingCount())
			return 0
		}
		fmt.Fprintf(os.Stderr, "loop: %v\n", err)
		return 1
	}

	completed := 0
	for _, status := range statuses {
		if status == ids.StatusCompleted {
			completed++
		}
	}
	fmt.Printf("loop: %d/%d tasks completed, %d remaining in queue\n", completed, len(statuses), state.PendingCount())
	return 0
}
