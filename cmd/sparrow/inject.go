package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/zeusync/sparrow/internal/app"
	"github.com/zeusync/sparrow/internal/core/events/bus"
	"github.com/zeusync/sparrow/internal/core/inject"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/injector"
	"github.com/zeusync/sparrow/internal/scenefile"
)

var injectCmd = &cobra.Command{
	Use:   "inject FILE...",
	Short: "Load scene files and inject their metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInject,
}

func init() {
	injectCmd.Flags().BoolP("watch", "w", false, "re-run when a scene file changes")
	injectCmd.Flags().Bool("strict", false, "abort a blob when a bevy_components entry fails to decode")
	injectCmd.Flags().Bool("flatten", false, "attach scene-level metadata to the parent node")
	injectCmd.Flags().Int("jobs", 0, "scene files loaded in parallel (default GOMAXPROCS)")
}

func runInject(cmd *cobra.Command, paths []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	out := cmd.OutOrStdout()

	sub, err := a.Bus.Subscribe(inject.EventInjected, func(e bus.Event) error {
		printInjected(out, e.Data().(inject.Injected))
		return nil
	})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Startup(ctx, scene.NewWorld()); err != nil {
		return err
	}
	if err := injectFiles(ctx, a, out, paths, jobs); err != nil {
		return err
	}
	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return nil
	}
	return watchFiles(ctx, a, out, paths, jobs)
}

// injectFiles loads paths into a fresh world and runs one update over it.
func injectFiles(ctx context.Context, a *app.App, out io.Writer, paths []string, jobs int) error {
	files, err := scenefile.LoadAll(ctx, paths, jobs)
	if err != nil {
		return err
	}
	w := scene.NewWorld()
	for _, f := range files {
		if _, err := f.Spawn(w); err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
	}
	sum, err := a.Update(ctx, w)
	if err != nil {
		return err
	}
	printSummary(out, sum)
	return nil
}

func watchFiles(ctx context.Context, a *app.App, out io.Writer, paths []string, jobs int) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	tracked := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		tracked[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Editors often replace files, so watch the directories.
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
	}
	a.Logger.Info("watching scene files", log.Int("files", len(tracked)))

	const debounce = 100 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if tracked[event.Name] && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				pending = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warn("watch error", log.Error(err))
		case now := <-ticker.C:
			if pending.IsZero() || now.Sub(pending) < debounce {
				continue
			}
			pending = time.Time{}
			color.New(color.FgCyan).Fprintln(out, "scene files changed, re-injecting")
			if err := injectFiles(ctx, a, out, paths, jobs); err != nil {
				color.New(color.FgRed).Fprintf(out, "inject failed: %v\n", err)
			}
		}
	}
}

func printInjected(out io.Writer, ev inject.Injected) {
	name := color.New(color.Bold).Sprint(ev.Name)
	fmt.Fprintf(out, "  %s [%s] %s", name, ev.Level, strings.Join(shortNames(ev.Components), ", "))
	if ev.Diagnostics > 0 {
		color.New(color.FgYellow).Fprintf(out, " (%d diagnostics)", ev.Diagnostics)
	}
	if ev.Source != ev.Target {
		color.New(color.FgHiBlack).Fprint(out, " -> parent")
	}
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, sum inject.Summary) {
	c := color.New(color.FgGreen, color.Bold)
	if sum.Diagnostics > 0 {
		c = color.New(color.FgYellow, color.Bold)
	}
	c.Fprintf(out, "%d nodes, %d components, %d diagnostics", sum.Nodes, sum.Components, sum.Diagnostics)
	if sum.Flattened > 0 {
		fmt.Fprintf(out, ", %d flattened", sum.Flattened)
	}
	color.New(color.FgHiBlack).Fprintf(out, " in %s\n", sum.Duration.Round(time.Microsecond))
}

func shortNames(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if i := strings.LastIndexAny(p, ".:/"); i >= 0 {
			p = p[i+1:]
		}
		out = append(out, p)
	}
	return out
}
