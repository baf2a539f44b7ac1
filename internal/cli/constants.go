package cli

// Default values for CLI output.
const (
	// MaxDescriptionLength is the maximum length of a package description to display.
	MaxDescriptionLength = 50
	// HashDisplayLength is how much of a package hash the text listing shows.
	HashDisplayLength = 16
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)
