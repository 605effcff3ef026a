package banner

import (
	"thunderdash/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
  __  __                __          ____             __  
 / /_/ /_  __  ______  / /__  _____/ __ \____ ______/ /_ 
/ __/ __ \/ / / / __ \/ / _ \/ ___/ / / / __ '/ ___/ __ \
/ /_/ / / / /_/ / / / / /  __/ /  / /_/ / /_/ (__  ) / / /
\__/_/ /_/\__,_/_/ /_/_/\___/_/  /_____/\__,_/____/_/ /_/ `

	return "\n" + style.Render(ascii) + "\n"
}
