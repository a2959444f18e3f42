package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/meshmap/pkg/topology"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, weak links
	colorBlue   = lipgloss.Color("75")  // Light blue - URLs
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text, links
	colorDim    = lipgloss.Color("240") // Dim gray - muted text

	// Device colors match the SVG and Graphviz palette.
	colorCoordinator = lipgloss.Color("#f0b429")
	colorRouter      = lipgloss.Color("#2680c2")
	colorEndDevice   = lipgloss.Color("#3ebd93")
	colorUnknown     = lipgloss.Color("#cbd2d9")
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warnings and weak links.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleStale    = lipgloss.NewStyle().Foreground(colorYellow)

	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	styleLink     = lipgloss.NewStyle().Foreground(colorGray)
	styleWeakLink = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
	iconStale   = "stale"
)

// =============================================================================
// Devices
// =============================================================================

var deviceStyles = map[topology.DeviceType]lipgloss.Style{
	topology.Coordinator: lipgloss.NewStyle().Foreground(colorCoordinator),
	topology.Router:      lipgloss.NewStyle().Foreground(colorRouter),
	topology.EndDevice:   lipgloss.NewStyle().Foreground(colorEndDevice),
}

var deviceGlyphs = map[topology.DeviceType]rune{
	topology.Coordinator: '★',
	topology.Router:      '●',
	topology.EndDevice:   '•',
}

// deviceStyle colors text by device type.
func deviceStyle(t topology.DeviceType) lipgloss.Style {
	if s, ok := deviceStyles[t]; ok {
		return s
	}
	return lipgloss.NewStyle().Foreground(colorUnknown)
}

// deviceGlyph is the one-cell symbol a device is drawn with in the terminal.
func deviceGlyph(t topology.DeviceType) rune {
	if g, ok := deviceGlyphs[t]; ok {
		return g
	}
	return 'o'
}

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented detail line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// artifactState says where a map's bytes came from.
type artifactState int

const (
	stateFresh artifactState = iota
	stateCached
	stateStale
)

// printStats prints the device and link counts of a map on one line,
// followed by where it came from.
func printStats(devices, links int, state artifactState) {
	fmt.Println(statsLine(devices, links, state))
}

func statsLine(devices, links int, state artifactState) string {
	var parts []string
	if devices > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d devices", devices)))
	}
	if links > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d links", links)))
	}
	switch state {
	case stateCached:
		parts = append(parts, styleCached.Render(iconCached))
	case stateStale:
		parts = append(parts, styleStale.Render(iconStale))
	default:
		parts = append(parts, styleComputed.Render(iconFresh))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
