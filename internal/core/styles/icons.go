package styles

// Status markers used in list and show output.
var (
	IconCompleted  = "✓"
	IconInProgress = "◐"
	IconNotStarted = "○"
	IconNoteDone   = "[x]"
	IconNoteOpen   = "[ ]"
	IconStar       = "★"
)
