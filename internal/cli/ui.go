package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

// Terminal palette (ANSI 256). The doping and clean colors mirror the
// chart's default mark fills.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorDoping = lipgloss.Color("166")
	colorClean  = lipgloss.Color("31")
)

var (
	// StyleTitle renders headings such as the explorer title.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// StyleLink renders URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders paths and values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
	styleDoping      = lipgloss.NewStyle().Foreground(colorDoping)
	styleClean       = lipgloss.NewStyle().Foreground(colorClean)
)

type statusKind struct {
	icon  string
	style lipgloss.Style
	// emphasize renders the message itself in the kind's color
	emphasize bool
}

var (
	statusSuccess = statusKind{icon: "✓", style: lipgloss.NewStyle().Foreground(colorOK)}
	statusError   = statusKind{icon: "✗", style: lipgloss.NewStyle().Foreground(colorFail)}
	statusWarning = statusKind{icon: "!", style: lipgloss.NewStyle().Foreground(colorWarn), emphasize: true}
	statusInfo    = statusKind{icon: "›", style: lipgloss.NewStyle().Foreground(colorGray)}
)

func printStatus(k statusKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if k.emphasize {
		msg = k.style.Render(msg)
	}
	fmt.Println(k.style.Render(k.icon) + " " + msg)
}

func printSuccess(format string, args ...any) { printStatus(statusSuccess, format, args...) }
func printError(format string, args ...any)   { printStatus(statusError, format, args...) }
func printWarning(format string, args ...any) { printStatus(statusWarning, format, args...) }
func printInfo(format string, args ...any)    { printStatus(statusInfo, format, args...) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

// printKeyValue prints an aligned label and value.
func printKeyValue(key, value string) {
	fmt.Println("  " + styleKey.Render(key) + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printStats prints the record breakdown of a render on one line, e.g.
//
//	35 records · 20 with allegations · 15 clean · fresh
func printStats(stats pipeline.Stats, cached bool) {
	sep := StyleDim.Render(" · ")
	parts := []string{StyleDim.Render(fmt.Sprintf("%d records", stats.Records))}
	if stats.Doping > 0 {
		parts = append(parts, styleDoping.Render(fmt.Sprintf("%d with allegations", stats.Doping)))
	}
	if stats.Clean > 0 {
		parts = append(parts, styleClean.Render(fmt.Sprintf("%d clean", stats.Clean)))
	}
	if stats.Skipped > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf("%d skipped", stats.Skipped)))
	}
	if cached {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorOK).Render("cached"))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGray).Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, sep))
}
