package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/tatianab/island-adventure/internal/app"
	"github.com/tatianab/island-adventure/internal/config"
	"github.com/tatianab/island-adventure/internal/console"
	"github.com/tatianab/island-adventure/internal/engine"
)

func main() {
	resume := flag.Bool("continue", false, "Continue from the saved game")
	fast := flag.Bool("fast", false, "Print text without pacing")
	flag.Parse()

	if err := run(*resume, *fast); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(resume, fast bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if fast {
		cfg.PrintDelay = 0
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("starting game: %w", err)
	}
	defer a.Close()

	// Ctrl-C cuts the line being typed short. At a prompt it ends the game.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	out := console.NewRenderer(os.Stdout, cfg.PrintDelay).InterruptOn(interrupts)
	for _, w := range a.Warnings {
		out.Warn(w)
	}
	in := console.NewReader(os.Stdin).InterruptOn(interrupts)

	return engine.NewRunner(a.Engine, in, out).Run(context.Background(), resume)
}
