package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/internal/presentation/graph"
	"github.com/lanreath/strata/internal/presentation/tui"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/dsl"
)

// RunSession drives a single interactive session over def: each line on
// stdin fires one event into a fresh engine until EOF, 'exit', or an
// interrupt.
func RunSession(def *domain.ChartDef, opts RunOptions) error {
	logger := createLogger(opts.Debug)

	interactive := !opts.Quiet && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		tui.PrintBanner(strings.TrimSpace(strata.Version))
	}

	hooks := narrationHooks(def)
	engineOpts := []strata.Option{}
	if opts.Debug {
		hooks = domain.Chain(hooks, createDebugHooks(logger))
		engineOpts = append(engineOpts, strata.WithLogger(logger))
	}
	engineOpts = append(engineOpts, strata.WithLifecycleHooks(hooks))

	eng, err := dsl.Assemble(def, engineOpts...)
	if err != nil {
		return fmt.Errorf("error assembling chart: %w", err)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if interactive {
		printSystemMessage("Chart '%s' ready at '%s'. Type an event name or id; 'help' lists commands.", def.Name, stateLabel(def, eng.Current()))
	}

	// A reader goroutine feeds lines so a signal can interrupt a blocked
	// stdin read.
	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-sigCtx.Done():
				return
			}
		}
		readDone <- scanner.Err()
	}()

	var runErr error
loop:
	for {
		if interactive {
			fmt.Print("> ")
		}
		select {
		case <-sigCtx.Done():
			runErr = sigCtx.Err()
			break loop
		case err := <-readDone:
			if err == nil {
				err = io.EOF
			}
			runErr = err
			break loop
		case line := <-lines:
			if quit := handleLine(sigCtx, def, eng, line); quit {
				break loop
			}
		}
	}

	if interactive {
		logCompletion(def, eng.Current(), runErr, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}

// handleLine interprets one REPL line. It reports true when the session
// should end.
func handleLine(ctx context.Context, def *domain.ChartDef, eng *strata.Engine, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	token, rest, _ := strings.Cut(line, " ")
	switch token {
	case "exit", "quit":
		return true
	case "help":
		printHelp(def)
		return false
	case "state":
		printSystemMessage("current: %s (%s)", stateLabel(def, eng.Current()), eng.Current())
		return false
	case "diagram":
		fmt.Print(graph.GenerateMermaid(def, &graph.Overlay{Current: eng.Current()}))
		return false
	}

	id, err := resolveEvent(def, token)
	if err != nil {
		printSystemMessage("%v", err)
		return false
	}

	var payload []byte
	if rest != "" {
		payload = []byte(rest)
	}

	outcome, err := eng.Dispatch(ctx, domain.NewEvent(id, payload))
	if err != nil {
		printSystemMessage("dispatch failed: %v", err)
		return false
	}
	printSystemMessage("%s: %s, now at '%s'", def.EventName(id), outcome, stateLabel(def, eng.Current()))
	return false
}

// resolveEvent accepts a declared event name or a bare numeric id.
func resolveEvent(def *domain.ChartDef, token string) (domain.EventID, error) {
	for id, name := range def.Events {
		if name == token {
			return id, nil
		}
	}
	if n, err := strconv.ParseUint(token, 10, 16); err == nil {
		return domain.EventID(n), nil
	}
	return 0, fmt.Errorf("unknown event %q (try 'help')", token)
}

func printHelp(def *domain.ChartDef) {
	printSystemMessage("commands: state, diagram, help, exit")
	names := make([]string, 0, len(def.Events))
	for id, name := range def.Events {
		names = append(names, fmt.Sprintf("%s (%d)", name, id))
	}
	sort.Strings(names)
	if len(names) > 0 {
		printSystemMessage("events: %s", strings.Join(names, ", "))
	}
	printSystemMessage("fire one with: <event> [payload]")
}
