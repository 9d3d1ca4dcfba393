package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/memviz/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

// Object identities are cyan in every table so they can be matched against
// the JSON document by eye.
var (
	colorCyan   = lipgloss.Color("37")
	colorGreen  = lipgloss.Color("71")
	colorYellow = lipgloss.Color("178")
	colorRed    = lipgloss.Color("160")
	colorBlue   = lipgloss.Color("68")
	colorWhite  = lipgloss.Color("252")
	colorGray   = lipgloss.Color("244")
	colorDim    = lipgloss.Color("239")
)

// =============================================================================
// Public Styles
// =============================================================================

// Styles shared by commands and the checkpoint picker.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "from cache"
	iconFresh   = "computed"
)

// =============================================================================
// Status Output
// =============================================================================

// status prints one icon-prefixed line to stdout.
func status(icon string, iconStyle, msgStyle lipgloss.Style, format string, args ...any) {
	fmt.Println(iconStyle.Render(icon) + " " + msgStyle.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) {
	status(iconSuccess, styleIconSuccess, lipgloss.NewStyle(), format, args...)
}

func printError(format string, args ...any) {
	status(iconError, styleIconError, lipgloss.NewStyle(), format, args...)
}

// printWarning is used for malformed-node issues, which never abort a render.
func printWarning(format string, args ...any) {
	status(iconWarning, styleIconWarning, StyleWarning, format, args...)
}

func printInfo(format string, args ...any) {
	status(iconInfo, styleIconInfo, lipgloss.NewStyle(), format, args...)
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written artifact.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

var keyStyle = lipgloss.NewStyle().Foreground(colorGray).Width(10)

func printKeyValue(key, value string) {
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Summary Display
// =============================================================================

// printSummary prints scene statistics on a single line.
func printSummary(sum pipeline.Summary, cached bool) {
	parts := []string{
		fmt.Sprintf("%d objects", sum.Objects),
		fmt.Sprintf("%d arrows", sum.References),
		fmt.Sprintf("%gx%g", sum.Width, sum.Height),
	}
	if n := len(sum.Issues); n > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d malformed", n)))
	}

	origin, originStyle := iconFresh, styleComputed
	if cached {
		origin, originStyle = iconCached, styleCached
	}
	parts = append(parts, originStyle.Render(origin))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
