// Command game plays the island adventure in a full-screen terminal UI.
package main

import (
	"fmt"
	"os"

	"github.com/tatianab/island-adventure/internal/app"
	"github.com/tatianab/island-adventure/internal/config"
	"github.com/tatianab/island-adventure/internal/tui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Printf("Error creating game: %v\n", err)
		os.Exit(1)
	}
	for _, w := range a.Warnings {
		fmt.Println(w)
	}

	err = tui.Run(a.Engine, a.Logger, cfg.PrintDelay)
	a.Close()
	if err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Thanks for playing, goodbye!")
}
