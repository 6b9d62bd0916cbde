package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/vthunder/cube/internal/runner"
)

// runREPL reads commands until exit, EOF or ctx is done. An empty line
// runs a tick and prints the status.
func runREPL(ctx context.Context, r *runner.Runner, statePath string) error {
	if err := os.MkdirAll(statePath, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       filepath.Join(statePath, "cube-history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		UniqueEditLine:    true,

		Stdin:  readline.NewCancelableStdin(os.Stdin),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	// Unblock Readline on shutdown signals
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	fmt.Println("Cube ready. Type a command, press Enter on an empty line to tick, 'exit' to quit.")

	for {
		input, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(input) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		case "":
			status, err := r.Tick(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			printJSON(status)
			continue
		}

		resp, err := r.Command(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			if runner.IsQueueFull(err) {
				continue
			}
		}
		printJSON(resp)
	}
}
