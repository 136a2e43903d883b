package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds pane dimension configuration.
type PaneConfig struct {
	// HeightReduction is subtracted from terminal height for pane content.
	// Accounts for: app padding (1) + tab bar (1) + pane borders (2) + message (1) + hints (1) + gap (1) = 7
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// SplitWidthOffset is subtracted before splitting list and detail panes.
	// Accounts for app padding and both pane borders.
	SplitWidthOffset int

	// ListWidthPercent is the share of the remaining width given to the list.
	ListWidthPercent int

	// MinListWidth is the minimum width of the tool list.
	MinListWidth int

	// MinDetailWidth is the minimum width of the detail pane.
	MinDetailWidth int

	// ContentPadding is subtracted from pane width for item rendering.
	ContentPadding int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// DefaultWidthPercent is the modal width as percentage of terminal width.
	DefaultWidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int

	// RecommendMaxVisible: max recommendations shown at once.
	RecommendMaxVisible int

	// HelpLeftColumnWidth: width for help overlay left column.
	HelpLeftColumnWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	FilterCharLimit    int
	RecommendCharLimit int

	FilterWidth    int
	RecommendWidth int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction:  7,
			MinHeight:        5,
			SplitWidthOffset: 8,
			ListWidthPercent: 40,
			MinListWidth:     24,
			MinDetailWidth:   20,
			ContentPadding:   4,
		},
		Modal: ModalConfig{
			DefaultWidthPercent: 60,
			MinWidth:            50,
			MaxWidth:            90,
			RecommendMaxVisible: 5,
			HelpLeftColumnWidth: 26,
		},
		Input: InputConfig{
			FilterCharLimit:    50,
			RecommendCharLimit: 300,
			FilterWidth:        20,
			RecommendWidth:     60,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
