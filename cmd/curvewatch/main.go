// cmd/curvewatch/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moonforge/launchpad/internal/tui"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "launchpad API base URL")
	flag.Parse()

	model := tui.NewModel(tui.NewAPIClient(*apiURL))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "curvewatch error: %v\n", err)
		os.Exit(1)
	}
}
