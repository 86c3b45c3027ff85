package wizard

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/quickwish/quickwish/internal/tui/style"
)

// renderKeyHelp renders one "[k] desc" help chip followed by suffix.
func renderKeyHelp(binding key.Binding, suffix string) string {
	help := binding.Help()

	return style.Help.Render("[") +
		style.Key.Render(help.Key) +
		style.Help.Render("] "+help.Desc) +
		suffix
}
