package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/sc2fla/internal/config"
	"github.com/Faultbox/sc2fla/internal/pipeline"
	"github.com/Faultbox/sc2fla/internal/platform"
	"github.com/Faultbox/sc2fla/internal/tools"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func centered(s string, style lipgloss.Style) string {
	return lipgloss.PlaceHorizontal(terminalWidth(), lipgloss.Center, style.Render(s))
}

func printUsage(host platform.Info) {
	fmt.Println()
	fmt.Println(centered("sc2fla - Supercell .sc to Adobe Animate converter", titleStyle))
	fmt.Println(centered(fmt.Sprintf("Running on: %s (%s)", host.OS, host.Arch), infoStyle))
	fmt.Println(`
Usage:
  sc2fla [options] <file.sc|directory>

Commands:
  -p,  --process PATH       Process an .sc file or directory
  -dr, --dump-raw           Dump textures as raw data instead of converting
  -dp, --dump-png           Dump textures as PNG images instead of converting
  -dx, --decompress FILE    Decompress an .sc file to FILE.dec
  -cx, --compress FILE      Compress FILE to FILE.cmp (--kind LZMA | SC | V1)
  -s,  --sort-layers        Sort layers by draw priority

Options:
  -j, --jobs N              Convert N files in parallel
  -o, --overwrite           Replace existing outputs (--no-overwrite skips them)
      --format fla|xfl      Write a .fla archive or an unpacked XFL folder
      --config FILE         Load settings from FILE
  -v, --verbose             Debug logging

Platform:
  --platform                Show platform information
  --tools                   Show tool status and paths
  --config-status           Show the effective configuration
  --save-config             Write the effective configuration as YAML`)
}

func printPlatform(host platform.Info) {
	fmt.Println(titleStyle.Render("Platform"))
	fmt.Println(host.String())
	if host.Rosetta {
		fmt.Println("Rosetta: available")
	}
	fmt.Println("Tool directory:", host.BinDir())
}

func printTools(statuses []tools.Status) {
	fmt.Println(titleStyle.Render("Tools"))
	for _, s := range statuses {
		if !s.Available() {
			fmt.Printf("  %-16s %s %s\n", s.Tool, failStyle.Render(string(tools.Unavailable)), dimStyle.Render(s.Err.Error()))
			continue
		}
		fmt.Printf("  %-16s %s %s %s\n", s.Tool, okStyle.Render(string(s.Mode)), s.Path, dimStyle.Render("("+s.Source+")"))
	}
}

func printConfig(cfg *config.Config) int {
	source := config.ConfigPath()
	if source == "" {
		source = "defaults and discovered files"
	}
	fmt.Println(titleStyle.Render("Configuration"), dimStyle.Render(source))

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}

func printSettings(mode pipeline.Mode, opts pipeline.Options) {
	parts := []string{"mode " + mode.String()}
	if mode == pipeline.Process {
		parts = append(parts, "format "+opts.OutputFormat)
		if opts.SortLayers {
			parts = append(parts, "layer sorting on")
		}
	}
	if mode == pipeline.Compress {
		parts = append(parts, "kind "+opts.Kind.String())
	}
	if opts.Workers > 1 {
		parts = append(parts, fmt.Sprintf("%d workers", opts.Workers))
	}
	fmt.Println(dimStyle.Render(strings.Join(parts, ", ")))
}

func printResult(r pipeline.Result) {
	name := filepath.Base(r.Path)
	took := dimStyle.Render(r.Duration.Round(time.Millisecond).String())

	switch r.Status {
	case pipeline.Failed:
		fmt.Printf("%s %s: %v\n", failStyle.Render("[fail]"), name, r.Err)
	case pipeline.Skipped:
		fmt.Printf("%s %s: %s\n", skipStyle.Render("[skip]"), name, r.Reason)
	default:
		fmt.Printf("%s %s -> %s %s\n", okStyle.Render("[ ok ]"), name, describe(r), took)
	}
}

func describe(r pipeline.Result) string {
	if r.Dump != nil {
		msg := fmt.Sprintf("%d textures", len(r.Dump.Written))
		if n := len(r.Dump.Skipped); n > 0 {
			msg += fmt.Sprintf(", %d skipped", n)
		}
		return msg
	}
	var outs []string
	for _, o := range r.Outputs {
		entry := filepath.Base(o)
		if info, err := os.Stat(o); err == nil && !info.IsDir() {
			entry += " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		outs = append(outs, entry)
	}
	return strings.Join(outs, ", ")
}

func printSummary(sum *pipeline.Summary) {
	line := fmt.Sprintf("%s succeeded, %s skipped, %s failed",
		okStyle.Render(fmt.Sprint(sum.Count(pipeline.Success))),
		skipStyle.Render(fmt.Sprint(sum.Count(pipeline.Skipped))),
		failStyle.Render(fmt.Sprint(sum.Count(pipeline.Failed))))
	fmt.Println(strings.Repeat("-", 20))
	fmt.Printf("%s in %s\n", line, sum.Elapsed.Round(time.Millisecond))
}
