package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tatianab/island-adventure/internal/engine"
	"github.com/tatianab/island-adventure/internal/models"
	"github.com/tatianab/island-adventure/internal/storage/sqlite"
	"github.com/tatianab/island-adventure/internal/story"
)

func TestReaderReadsLines(t *testing.T) {
	r := NewReader(strings.NewReader("1\r\nabc\n2"))
	ctx := context.Background()

	for _, want := range []string{"1", "abc", "2"} {
		got, err := r.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if strings.TrimSuffix(got, "\r") != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if _, err := r.ReadLine(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF, got %v", err)
	}
	if _, err := r.ReadLine(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF after close, got %v", err)
	}
}

func TestReaderStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader(pr).ReadLine(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestReaderStopsOnInterrupt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt
	if _, err := NewReader(pr).InterruptOn(interrupts).ReadLine(context.Background()); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Expected ErrInterrupted, got %v", err)
	}
}

func TestNarrateWithoutDelay(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(&buf, 0).Narrate(context.Background(), "You see a cave."); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "You see a cave.\n" {
		t.Fatalf("Unexpected output %q", buf.String())
	}
}

func TestNarrateWithDelay(t *testing.T) {
	var buf bytes.Buffer
	start := time.Now()
	if err := NewRenderer(&buf, time.Millisecond).Narrate(context.Background(), "abcde"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "abcde\n" {
		t.Fatalf("Unexpected output %q", buf.String())
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("Expected pacing of at least 5ms, took %v", elapsed)
	}
}

func TestNarrateInterrupted(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRenderer(&buf, time.Hour).Narrate(ctx, "a long line of text")
	if !errors.Is(err, engine.ErrRenderInterrupted) {
		t.Fatalf("Expected ErrRenderInterrupted, got %v", err)
	}
	if buf.String() != "a\n" {
		t.Fatalf("Expected rendering to stop after one character, got %q", buf.String())
	}
}

func TestNarrateStopsOnInterruptSignal(t *testing.T) {
	var buf bytes.Buffer
	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt
	ctx := context.Background()

	err := NewRenderer(&buf, time.Hour).InterruptOn(interrupts).Narrate(ctx, "a long line of text")
	if !errors.Is(err, engine.ErrRenderInterrupted) {
		t.Fatalf("Expected ErrRenderInterrupted, got %v", err)
	}
	if buf.String() != "a\n" {
		t.Fatalf("Expected rendering to stop after one character, got %q", buf.String())
	}
	if ctx.Err() != nil {
		t.Fatalf("Expected the interrupt to leave ctx alone")
	}
}

func TestHeadingRuleMatchesDisplayWidth(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, 0).Heading("洞穴")
	if !strings.Contains(buf.String(), "洞穴") {
		t.Fatalf("Expected heading text, got %q", buf.String())
	}
	if strings.Count(buf.String(), "─") != 4 {
		t.Errorf("Expected a rule 4 cells wide, got %q", buf.String())
	}
}

func TestConsolePlaythrough(t *testing.T) {
	g, err := story.Island()
	if err != nil {
		t.Fatal(err)
	}
	store := models.NewFileStore(filepath.Join(t.TempDir(), "savegame.yaml"))
	eng := engine.NewEngine(g, store, nil)

	var out bytes.Buffer
	in := NewReader(strings.NewReader("1\nzero\n9\n1\n2\n"))
	if err := engine.NewRunner(eng, in, NewRenderer(&out, 0)).Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"The Beach",
		"1. Enter the cave",
		"Enter your choice (1 to 2):",
		"Invalid input, please enter a number.",
		"Please enter a valid option (1 to 2).",
		"You obtained: Torch",
		"You collected the treasure. The game is over!",
		"Game saved.",
		"- Key: Might open a lock somewhere",
		"Would you like to play again?",
		"Thanks for playing, goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Scene != models.SceneCave || rec.Player.Inventory.Len() != 3 {
		t.Errorf("Unexpected save %+v", rec)
	}
}

func TestInterruptedPlaythroughKeepsGoing(t *testing.T) {
	g, err := story.Island()
	if err != nil {
		t.Fatal(err)
	}
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "savegame.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	eng := engine.NewEngine(g, store, nil)

	// The first narrated line is cut short.
	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt

	var out bytes.Buffer
	in := NewReader(strings.NewReader("1\n1\n2\n")).InterruptOn(interrupts)
	r := NewRenderer(&out, time.Microsecond).InterruptOn(interrupts)
	if err := engine.NewRunner(eng, in, r).Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	if strings.Contains(text, "Welcome to the adventure on the mysterious island!") {
		t.Errorf("Expected the first line to be cut short")
	}
	for _, want := range []string{
		"You are standing on the island's beach. You see a cave and a narrow trail.",
		"The Cave",
		"You collected the treasure. The game is over!",
		"Game saved.",
		"Thanks for playing, goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Scene != models.SceneCave || rec.Player.Inventory.Len() != 3 {
		t.Errorf("Unexpected save %+v", rec)
	}
}
