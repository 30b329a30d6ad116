package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorChipOn    = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorChipBg    = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2A2A3E"}
	colorSurface   = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#1E1E30"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerDateStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Right)

	listPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	listPaneActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorActiveBdr)

	detailPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	detailPaneActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorActiveBdr)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	cardSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	cardReadStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	cardChannelStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	cardTimeStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	cardTagStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Background(colorChipBg).
			Padding(0, 1)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	detailChannelStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	detailMetaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	detailLinkStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	chatUserStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	chatAssistantStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	chipActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorChipOn).
			Padding(0, 1).
			Bold(true)

	chipInactiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Background(colorChipBg).
				Padding(0, 1)

	chipSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	chatPromptStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	errorBodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 3)
)
