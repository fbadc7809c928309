// Package tui provides the CLI output helpers: styled status lines,
// progress bars, and run summaries.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	accent  = lipgloss.Color("#0087D7")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  HYDROFLOW") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Water network simulation and leakage benchmarks"))
	fmt.Println()
}

// PrintServerBanner prints the listen address when the API starts.
func PrintServerBanner(addr string) {
	fmt.Println()
	fmt.Println(accentStyle.Render("  ▸ API LISTENING"))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Address:"), titleStyle.Render("http://"+addr))
	fmt.Println()
}

// RunReport summarizes a finished simulation run.
type RunReport struct {
	Scenario  string
	Steps     int
	Sensors   int
	Leakages  int
	Duration  time.Duration
	OutputTo  string
}

// PrintRunReport prints results after a simulation run.
func PrintRunReport(report *RunReport) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ SIMULATION COMPLETE"))
	fmt.Println()
	if report.Scenario != "" {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Scenario:"), titleStyle.Render(report.Scenario))
	}
	fmt.Printf("  %s %s steps, %s sensors\n",
		mutedStyle.Render("Readings:"),
		titleStyle.Render(formatNumber(int64(report.Steps))),
		titleStyle.Render(formatNumber(int64(report.Sensors))))
	if report.Leakages > 0 {
		fmt.Printf("  %s %d\n", mutedStyle.Render("Leak events:"), report.Leakages)
	}
	if report.Duration > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(report.Duration)))
	}
	if report.OutputTo != "" {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Output:"), titleStyle.Render(report.OutputTo))
	}
	fmt.Println()
}

// BenchmarkReport summarizes a loaded benchmark dataset.
type BenchmarkReport struct {
	Variant     string
	Steps       int
	Sensors     int
	LeakSteps   int
	CachePath   string
	Duration    time.Duration
}

// PrintBenchmarkReport prints results after loading a benchmark.
func PrintBenchmarkReport(report *BenchmarkReport) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ BENCHMARK LOADED"))
	fmt.Println()
	fmt.Printf("  %s %s\n", mutedStyle.Render("Variant:"), titleStyle.Render(report.Variant))
	fmt.Printf("  %s %s steps, %s sensors\n",
		mutedStyle.Render("Data:"),
		titleStyle.Render(formatNumber(int64(report.Steps))),
		titleStyle.Render(formatNumber(int64(report.Sensors))))
	if report.Steps > 0 {
		share := 100 * float64(report.LeakSteps) / float64(report.Steps)
		fmt.Printf("  %s %s (%.1f%%)\n",
			mutedStyle.Render("Leaky steps:"),
			titleStyle.Render(formatNumber(int64(report.LeakSteps))), share)
	}
	if report.CachePath != "" {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Cache:"), mutedStyle.Render(report.CachePath))
	}
	if report.Duration > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(report.Duration)))
	}
	fmt.Println()
}

// PrintError prints a failure line.
func PrintError(err error) {
	fmt.Println(accentStyle.Render("  ✗ " + err.Error()))
}

// ClearLine clears the current line.
func ClearLine() {
	fmt.Print("\r\033[K")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// Spinner shows a simple loading indicator.
func Spinner(message string, done chan bool) {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			fmt.Printf("\r%s %s\n", successStyle.Render("✓"), message)
			return
		default:
			fmt.Printf("\r%s %s", accentStyle.Render(frames[i]), message)
			i = (i + 1) % len(frames)
			time.Sleep(80 * time.Millisecond)
		}
	}
}
