// Package repl is the interactive plan explorer: load a program
// increment document, run the planning pipeline, then poke at the
// graph, capacity, allocation, and readiness from a prompt.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/storage"
)

// REPL represents the interactive shell
type REPL struct {
	store     storage.Storage
	engineCfg engine.Config
	rl        *readline.Instance
	ctx       context.Context
	commands  map[string]CommandHandler

	// Session state: the loaded document and the last planning run.
	docPath string
	inc     *program.Increment
	result  *engine.PlanResult
	trail   []*events.PlanningEvent
	saved   bool
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Store  storage.Storage
	Engine engine.Config

	// Document preloads a program increment file on startup.
	Document string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	r := &REPL{
		store:     cfg.Store,
		engineCfg: cfg.Engine,
		commands:  make(map[string]CommandHandler),
	}

	// Register built-in commands
	r.registerCommands()

	if cfg.Document != "" {
		if err := r.cmdLoad([]string{cfg.Document}); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	prompt := cyan("railyard> ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       "",
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				// Ctrl+C - just show prompt again
				continue
			} else if err == io.EOF {
				// Ctrl+D - exit
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				// Exit command - graceful shutdown
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s Unknown command %q. Type 'help' for available commands.\n", yellow("Note:"), command)
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["load"] = r.cmdLoad
	r.commands["run"] = r.cmdRun
	r.commands["graph"] = r.cmdGraph
	r.commands["cycles"] = r.cmdCycles
	r.commands["critical"] = r.cmdCritical
	r.commands["capacity"] = r.cmdCapacity
	r.commands["alloc"] = r.cmdAlloc
	r.commands["unalloc"] = r.cmdUnalloc
	r.commands["assess"] = r.cmdAssess
	r.commands["optimize"] = r.cmdOptimize
	r.commands["runs"] = r.cmdRuns
	r.commands["save"] = r.cmdSave
}

// completer builds tab completion over the registered commands.
func (r *REPL) completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(r.commands))
	for name := range r.commands {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Welcome to Railyard"))
	fmt.Println("Release train planning for program increments")
	fmt.Println()
	if r.inc != nil {
		fmt.Printf("Loaded %s (%d items)\n", r.docPath, len(r.inc.Items))
		fmt.Println()
	}
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Available Commands:"))
	fmt.Println()

	commands := []struct {
		name string
		desc string
	}{
		{"load <file>", "Load a program increment document"},
		{"run", "Run the planning pipeline on the loaded document"},
		{"graph", "Show the dependency graph summary"},
		{"cycles", "List dependency cycles"},
		{"critical", "Show the critical path"},
		{"capacity", "Show per-team capacity and utilization"},
		{"alloc [n]", "List allocated items, optionally for iteration n"},
		{"unalloc", "List items that could not be placed"},
		{"assess", "Show the readiness assessment"},
		{"optimize", "Show what the optimization pass changed"},
		{"runs [n]", "List recent saved runs (default 10)"},
		{"save", "Persist the last run to the project database"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the explorer"},
	}

	for _, cmd := range commands {
		fmt.Printf("  %-14s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Println()

	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	if r.result != nil && !r.saved {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("%s Last run was not saved (use 'save' to keep it)\n", yellow("Note:"))
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Goodbye!\n", green("✓"))
	if r.rl != nil {
		r.rl.Close()
	}
	return io.EOF // Signal to exit the loop
}
