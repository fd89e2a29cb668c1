package tui

// Keybinding constants. Every other key scrolls the log viewport.
const (
	KeyQuit  = "q"
	KeyCtrlC = "ctrl+c"
)

// HelpView returns a one-line help bar with the watch view's keybindings.
func HelpView() string {
	return StyleHelp.Render("j/k: scroll log | pgup/pgdown: page | q: quit (cancels unsettled waits)")
}
