package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/island-adventure/internal/app"
	"github.com/tatianab/island-adventure/internal/config"
	"github.com/tatianab/island-adventure/internal/console"
	"github.com/tatianab/island-adventure/internal/engine"
	"google.golang.org/api/option"
)

const maxTurns = 10

// llmPlayer answers each prompt by asking the model for a menu number.
type llmPlayer struct {
	model      *genai.GenerativeModel
	transcript *bytes.Buffer
	turns      int
}

func (p *llmPlayer) ReadLine(ctx context.Context) (string, error) {
	if p.turns >= maxTurns {
		return "", io.EOF
	}
	p.turns++

	prompt := fmt.Sprintf(`You are playing a text-based adventure game.
Everything shown to you so far:

%s

Pick one of the numbered options in the latest menu. Return ONLY the number, no extra commentary.`,
		p.transcript.String(),
	)

	answer := "1"
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("Failed to get player choice: %v", err)
	} else if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		answer = strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	}
	fmt.Printf("%s\n", answer)
	p.transcript.WriteString(answer + "\n")
	return answer, nil
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatalf("GEMINI_API_KEY is required to simulate a game")
	}
	cfg.PrintDelay = 0

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer a.Close()

	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()

	transcript := &bytes.Buffer{}
	player := &llmPlayer{
		model:      playerClient.GenerativeModel(cfg.GeminiModel),
		transcript: transcript,
	}
	out := console.NewRenderer(io.MultiWriter(os.Stdout, transcript), 0)

	runner := engine.NewRunner(a.Engine, player, out)
	s, err := runner.Play(ctx, a.Engine.Start())
	if err != nil {
		log.Fatalf("Simulation stopped after %d turns: %v", player.turns, err)
	}
	fmt.Printf("\nGame Ended: %s after %d turns\n", s.Outcome, player.turns)
}
