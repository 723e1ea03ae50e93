// Package cmd provides CLI command implementations for Coderef.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/coderef-labs/coderef-go/internal/complexity"
	"github.com/coderef-labs/coderef-go/internal/graph"
	"github.com/coderef-labs/coderef-go/internal/impact"
	"github.com/coderef-labs/coderef-go/internal/index"
	"github.com/coderef-labs/coderef-go/internal/reports"
	"github.com/coderef-labs/coderef-go/internal/storage"
	"github.com/coderef-labs/coderef-go/internal/vcs"
	"github.com/coderef-labs/coderef-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// indexFlag is embedded by every command that reads the element index.
type indexFlag struct {
	Index string `help:"Path to the element index" default:".coderef/index.json"`
}

// storePath returns the snapshot store location next to the index file.
func (f *indexFlag) storePath() string {
	return filepath.Join(filepath.Dir(f.Index), "badger")
}

// loadElements returns the element snapshot for the index, preferring the
// persistent store when it matches the index file's current revision and
// falling back to parsing the JSON document.
func (f *indexFlag) loadElements() ([]index.Element, error) {
	info, err := os.Stat(f.Index)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no index found at %s. Run the coderef scanner first", f.Index)
		}
		return nil, fmt.Errorf("accessing index: %w", err)
	}

	if elements, ok := f.loadFromStore(info); ok {
		return elements, nil
	}

	return index.Load(f.Index)
}

func (f *indexFlag) loadFromStore(info os.FileInfo) ([]index.Element, bool) {
	storePath := f.storePath()
	if _, err := os.Stat(storePath); err != nil {
		return nil, false
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(storePath, true); err != nil {
		return nil, false
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	meta, err := store.Meta(ctx)
	if err != nil || !meta.Matches(info.ModTime(), info.Size()) {
		return nil, false
	}

	elements, err := store.Elements(ctx)
	if err != nil {
		return nil, false
	}
	return elements, true
}

// ImpactCmd shows the blast radius of changing an element.
type ImpactCmd struct {
	indexFlag
	Element   string `arg:"" help:"Element to analyze"`
	Depth     int    `short:"d" default:"3" help:"Maximum traversal depth"`
	Direction string `help:"Traversal direction" enum:"callers,callees" default:"callers"`
}

// Run executes the impact command.
func (c *ImpactCmd) Run() error {
	if c.Element == "" {
		return fmt.Errorf("element name required. Usage: coderef impact <element>")
	}

	elements, err := c.loadElements()
	if err != nil {
		return err
	}

	analyzer := impact.NewAnalyzer(graph.Build(elements))
	result, ok := analyzer.Analyze(c.Element, c.Depth, impact.Direction(c.Direction))
	if !ok {
		fmt.Printf("Element '%s' not found in the index.\n", c.Element)
		return nil
	}

	fmt.Print(result.Report)

	if result.AffectedCount > 0 {
		fmt.Println("\nTip: Review each affected element before making changes.")
	}
	return nil
}

// ComplexityCmd estimates complexity for one element or a task group.
type ComplexityCmd struct {
	indexFlag
	Elements []string `arg:"" help:"Element name(s); several names are aggregated as one task"`
}

// Run executes the complexity command.
func (c *ComplexityCmd) Run() error {
	if len(c.Elements) == 0 {
		return fmt.Errorf("element name required. Usage: coderef complexity <element> [<element>...]")
	}

	elements, err := c.loadElements()
	if err != nil {
		return err
	}
	g := graph.Build(elements)

	if len(c.Elements) == 1 {
		el, ok := g.Element(c.Elements[0])
		if !ok {
			fmt.Printf("Element '%s' not found in the index.\n", c.Elements[0])
			return nil
		}

		est := complexity.EstimateElement(el)
		fmt.Printf("Complexity for %s (%s:%d)\n", est.Name, est.File, est.Line)
		fmt.Printf("  Workflow score:      %d/10 (risk: %s)\n", est.Score, est.RiskLevel)
		fmt.Printf("  Cyclomatic estimate: %d/50\n", est.Raw)
		fmt.Printf("  Parameters: %d  Calls: %d  Est. lines: %d\n",
			est.Factors.Parameters, est.Factors.Calls, est.Factors.EstimatedLines)
		if est.Score > complexity.RefactorThreshold {
			color.Yellow("  Refactor candidate")
		}
		return nil
	}

	task := complexity.EstimateTask(g, c.Elements)
	fmt.Printf("Task complexity over %d element(s)\n", task.Requested)
	fmt.Printf("  Found with complexity: %d\n", task.ElementsWithComplexity)
	fmt.Printf("  Average: %.1f  Max: %d\n", task.Average, task.Max)
	fmt.Printf("  Distribution: %s=%d %s=%d %s=%d\n",
		complexity.BucketLow, task.Distribution[complexity.BucketLow],
		complexity.BucketMedium, task.Distribution[complexity.BucketMedium],
		complexity.BucketHigh, task.Distribution[complexity.BucketHigh])

	if len(task.HighComplexity) > 0 {
		fmt.Println("  Refactor candidates:")
		for _, est := range task.HighComplexity {
			fmt.Printf("    - %s (score %d) in %s\n", est.Name, est.Score, est.File)
		}
	}
	return nil
}

// HotspotsCmd lists elements exceeding the raw complexity hotspot threshold.
type HotspotsCmd struct {
	indexFlag
	Limit int `short:"n" default:"20" help:"Maximum hotspots to show"`
}

// Run executes the hotspots command.
func (c *HotspotsCmd) Run() error {
	elements, err := c.loadElements()
	if err != nil {
		return err
	}

	hotspots := complexity.Hotspots(elements)
	if len(hotspots) == 0 {
		fmt.Printf("No elements at or above the hotspot threshold (%d).\n", complexity.HotspotThreshold)
		return nil
	}
	if c.Limit > 0 && len(hotspots) > c.Limit {
		hotspots = hotspots[:c.Limit]
	}

	fmt.Printf("Complexity hotspots (raw >= %d):\n", complexity.HotspotThreshold)
	for i, est := range hotspots {
		fmt.Printf("%d. %s — raw %d/50, workflow %d/10 (%s:%d)\n",
			i+1, est.Name, est.Raw, est.Score, est.File, est.Line)
	}
	return nil
}

// PatternsCmd reports naming conventions, handlers, and usage frequency.
type PatternsCmd struct {
	indexFlag
	Top int `default:"10" help:"Frequency list length"`
}

// Run executes the patterns command.
func (c *PatternsCmd) Run() error {
	elements, err := c.loadElements()
	if err != nil {
		return err
	}

	report := reports.AnalyzePatterns(elements, c.Top)

	fmt.Printf("Pattern report over %d element(s)\n\n", report.TotalElements)

	fmt.Println("Naming conventions:")
	if len(report.NamingConventions) == 0 {
		fmt.Println("  (none)")
	}
	for elType, style := range report.NamingConventions {
		fmt.Printf("  %-10s %s\n", elType, style)
	}

	fmt.Printf("\nHandlers (%d):\n", len(report.Handlers))
	for _, h := range report.Handlers {
		fmt.Printf("  - %s\n", h)
	}

	printCounts("Top decorators", report.TopDecorators)
	printCounts("Top imports", report.TopImports)
	return nil
}

func printCounts(title string, counts []reports.NameCount) {
	fmt.Printf("\n%s:\n", title)
	if len(counts) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, nc := range counts {
		fmt.Printf("  %4d  %s\n", nc.Count, nc.Name)
	}
}

// CoverageCmd reports CodeRef tag coverage.
type CoverageCmd struct {
	indexFlag
	ShowUntagged bool `help:"List untagged elements"`
}

// Run executes the coverage command.
func (c *CoverageCmd) Run() error {
	elements, err := c.loadElements()
	if err != nil {
		return err
	}

	report := reports.AnalyzeCoverage(elements)
	fmt.Printf("CodeRef tag coverage: %d/%d elements (%.1f%%)\n", report.Tagged, report.Total, report.Percent)

	if c.ShowUntagged && len(report.Untagged) > 0 {
		fmt.Println("Untagged elements:")
		for _, name := range report.Untagged {
			fmt.Printf("  - %s\n", name)
		}
	}
	return nil
}

// ChangesCmd analyzes the impact of the current git worktree changes.
type ChangesCmd struct {
	indexFlag
	Repo string `default:"." help:"Path to the git repository"`
}

// Run executes the changes command.
func (c *ChangesCmd) Run() error {
	files, err := vcs.ChangedFiles(c.Repo)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("Worktree is clean; nothing to analyze.")
		return nil
	}

	elements, err := c.loadElements()
	if err != nil {
		return err
	}

	report := impact.NewAnalyzer(graph.Build(elements)).AnalyzeChanges(elements, files)

	fmt.Printf("Changed files (%d):\n", len(files))
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}

	if len(report.Changed) == 0 {
		fmt.Println("\nNo indexed elements in the changed files.")
		return nil
	}

	fmt.Printf("\nChanged elements (%d):\n", len(report.Changed))
	for _, el := range report.Changed {
		fmt.Printf("  - %s (%s:%d)\n", el.Name, el.File, el.Line)
	}

	if len(report.Affected) == 0 {
		fmt.Println("\nNo other elements are directly affected.")
		return nil
	}

	fmt.Printf("\nDirectly affected (%d, risk: %s):\n", len(report.Affected), report.RiskLevel)
	for _, el := range report.Affected {
		fmt.Printf("  - %s (%s:%d)\n", el.Name, el.File, el.Line)
	}
	return nil
}

// SyncCmd persists the parsed index into the snapshot store.
type SyncCmd struct {
	indexFlag
}

// Run executes the sync command.
func (c *SyncCmd) Run() error {
	info, err := os.Stat(c.Index)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no index found at %s. Run the coderef scanner first", c.Index)
		}
		return fmt.Errorf("accessing index: %w", err)
	}

	elements, err := index.Load(c.Index)
	if err != nil {
		return err
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(c.storePath(), false); err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer func() { _ = store.Close() }()

	meta := storage.Meta{
		IndexPath:    c.Index,
		IndexModTime: info.ModTime(),
		IndexSize:    info.Size(),
		SyncedAt:     time.Now().UTC(),
	}
	if err := store.PutSnapshot(context.Background(), meta, elements); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	color.Green("✓ Synced %d element(s) to %s", len(elements), c.storePath())
	return nil
}

// StatusCmd shows index and snapshot store status.
type StatusCmd struct {
	indexFlag
}

// Run executes the status command.
func (c *StatusCmd) Run() error {
	info, err := os.Stat(c.Index)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no index found at %s. Run the coderef scanner first", c.Index)
		}
		return fmt.Errorf("accessing index: %w", err)
	}

	elements, err := index.Load(c.Index)
	if err != nil {
		return err
	}
	g := graph.Build(elements)

	fmt.Printf("Index status for %s\n", c.Index)
	fmt.Printf("  Elements:       %d\n", len(elements))
	fmt.Printf("  Graph nodes:    %d\n", g.NodeCount())
	fmt.Printf("  Edges:          %d\n", g.EdgeCount())
	fmt.Printf("  Last modified:  %s\n", info.ModTime().UTC().Format(time.RFC3339))

	if _, err := os.Stat(c.storePath()); err != nil {
		fmt.Println("  Snapshot store: none (run 'coderef sync')")
		return nil
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(c.storePath(), true); err != nil {
		fmt.Printf("  Snapshot store: unreadable (%v)\n", err)
		return nil
	}
	defer func() { _ = store.Close() }()

	meta, err := store.Meta(context.Background())
	switch {
	case err != nil || meta == nil:
		fmt.Println("  Snapshot store: empty")
	case meta.Matches(info.ModTime(), info.Size()):
		fmt.Printf("  Snapshot store: fresh (%d elements, synced %s)\n",
			meta.ElementCount, meta.SyncedAt.Format(time.RFC3339))
	default:
		fmt.Println("  Snapshot store: stale (run 'coderef sync')")
	}
	return nil
}

// WatchCmd keeps the snapshot store in sync with the index file.
type WatchCmd struct {
	indexFlag
}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", c.Index)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	resync := func() {
		sync := &SyncCmd{indexFlag: c.indexFlag}
		if err := sync.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Sync error: %v\n", err)
		}
	}
	resync()

	err := index.Watch(ctx, c.Index, resync)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server (stdio transport).
type MCPCmd struct {
	indexFlag
}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	server := mcp.NewServer(&mcp.CacheSource{
		Cache: index.NewCache(),
		Path:  c.Index,
	})

	// Note: No output to stderr - MCP server uses stdio for JSON-RPC only
	return server.Run(context.Background(), os.Stdin, os.Stdout)
}

// ServeCmd starts the MCP server with optional index watching.
type ServeCmd struct {
	indexFlag
	Watch bool `short:"w" help:"Invalidate the cache when the index file changes"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := index.NewCache()
	server := mcp.NewServer(&mcp.CacheSource{Cache: cache, Path: c.Index})

	if c.Watch {
		fmt.Fprintln(os.Stderr, "Starting MCP server with watch mode...")
		go func() {
			err := index.Watch(ctx, c.Index, func() { cache.Invalidate(c.Index) })
			if err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			}
		}()
	} else {
		fmt.Fprintln(os.Stderr, "Starting MCP server...")
	}

	return server.Run(ctx, os.Stdin, os.Stdout)
}

// CleanCmd deletes the snapshot store.
type CleanCmd struct {
	indexFlag
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	storePath := c.storePath()
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return fmt.Errorf("no snapshot store at %s. Nothing to clean", storePath)
	}

	if !c.Force {
		fmt.Printf("Delete snapshot store at %s? [y/N] ", storePath)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(storePath); err != nil {
		return fmt.Errorf("deleting snapshot store: %w", err)
	}

	color.Green("Deleted %s", storePath)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

func toJSON(v any) string {
	bytes, _ := json.Marshal(v)
	return string(bytes)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	// Commands
	Impact     ImpactCmd     `cmd:"" help:"Show blast radius of changing an element"`
	Complexity ComplexityCmd `cmd:"" help:"Estimate complexity for element(s)"`
	Hotspots   HotspotsCmd   `cmd:"" help:"List complexity hotspots"`
	Patterns   PatternsCmd   `cmd:"" help:"Report naming and usage patterns"`
	Coverage   CoverageCmd   `cmd:"" help:"Report CodeRef tag coverage"`
	Changes    ChangesCmd    `cmd:"" help:"Analyze impact of worktree changes"`
	Sync       SyncCmd       `cmd:"" help:"Persist the index into the snapshot store"`
	Status     StatusCmd     `cmd:"" help:"Show index and store status"`
	Watch      WatchCmd      `cmd:"" help:"Keep the snapshot store in sync"`
	Setup      SetupCmd      `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve      ServeCmd      `cmd:"" help:"Start MCP server with optional watch mode"`
	Clean      CleanCmd      `cmd:"" help:"Delete the snapshot store"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("coderef"),
		kong.Description("Code intelligence queries over a pre-scanned element index"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
