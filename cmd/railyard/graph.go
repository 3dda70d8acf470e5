package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph <document>",
	Short: "Analyze work-item dependencies without planning",
	Long: `Build the dependency graph for an increment document and report
cycles, the critical path, and structural warnings. No capacity is
computed and nothing is allocated.

Example:
  railyard graph pi-2026-2.yaml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		inc, err := program.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		eng, err := engine.New(engine.DefaultConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		g, err := eng.BuildDependencyGraph(ctx, inc.Items, inc.Edges)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Dependency Graph: %s ===", inc.Name)))
		fmt.Printf("  Items: %d   Edges: %d", g.Size(), len(g.Edges()))
		if n := g.DroppedEdgeCount(); n > 0 {
			fmt.Printf("   (%d dropped)", n)
		}
		fmt.Println()
		fmt.Println()

		for _, w := range g.Warnings() {
			fmt.Printf("  %s %s\n", yellow("⚠"), w)
		}
		if len(g.Warnings()) > 0 {
			fmt.Println()
		}

		cycles := g.Cycles()
		if len(cycles) == 0 {
			fmt.Printf("%s No dependency cycles\n\n", green("✓"))
		} else {
			fmt.Printf("%s\n", red(fmt.Sprintf("Cycles: %d", len(cycles))))
			for i, c := range cycles {
				sev := yellow(string(c.Severity))
				if c.Severity == types.CycleCritical {
					sev = red(string(c.Severity))
				}
				fmt.Printf("  %d. [%s] %s\n", i+1, sev, strings.Join(c.Items, " -> "))
				for _, s := range c.Suggestions {
					fmt.Printf("     %s\n", gray("break: "+s))
				}
			}
			fmt.Println()
		}

		path := g.CriticalPath()
		if len(path) > 0 {
			fmt.Printf("%s\n", yellow(fmt.Sprintf("Critical path (%d items):", len(path))))
			for i, id := range path {
				title := ""
				if item, ok := g.Item(id); ok {
					title = item.Title
				}
				fmt.Printf("  %d. %-14s %s\n", i+1, id, gray(truncateString(title, 50)))
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
