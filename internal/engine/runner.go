package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tatianab/island-adventure/internal/models"
	"github.com/tatianab/island-adventure/internal/story"
)

const farewellMessage = "Thanks for playing, goodbye!"

var (
	// ErrInputClosed is returned when no more input can be read.
	ErrInputClosed = errors.New("input closed")
	// ErrRenderInterrupted is returned by an Output whose paced rendering
	// was cut short.
	ErrRenderInterrupted = errors.New("render interrupted")
	// ErrNoChoices is returned when a menu with no options is presented.
	ErrNoChoices = errors.New("no choices to present")
)

// Input supplies one line of text per prompt.
type Input interface {
	ReadLine(ctx context.Context) (string, error)
}

// Output renders text for the player.
type Output interface {
	// Narrate writes text with the configured pacing and a trailing newline.
	Narrate(ctx context.Context, text string) error
	// Heading writes a scene title.
	Heading(text string)
	// Notice writes a line immediately, without pacing.
	Notice(text string)
	// Warn writes a problem the player should know about.
	Warn(text string)
	// Prompt writes text without a trailing newline.
	Prompt(text string)
}

// Runner plays sessions of an Engine over an Input and an Output.
type Runner struct {
	eng    *Engine
	in     Input
	out    Output
	logger *slog.Logger
}

// NewRunner returns a runner for eng reading from in and writing to out.
func NewRunner(eng *Engine, in Input, out Output) *Runner {
	return &Runner{eng: eng, in: in, out: out, logger: eng.logger}
}

// Run plays until the player declines to play again or input runs out.
// With resume set, the first playthrough continues from the save slot and
// falls back to a new game if it cannot be loaded.
func (r *Runner) Run(ctx context.Context, resume bool) error {
	first := true
	for {
		var s Session
		if first && resume {
			s = r.resume(ctx)
		} else {
			s = r.eng.Start()
		}
		first = false

		if s.Status == StatusInScene {
			var err error
			if s, err = r.Play(ctx, s); err != nil {
				if errors.Is(err, ErrInputClosed) {
					r.logger.Info("input closed, ending session", "session", s.ID)
					return nil
				}
				return err
			}
		}

		again, err := r.askReplay(ctx)
		if err != nil {
			if errors.Is(err, ErrInputClosed) {
				r.logger.Info("input closed, ending session", "session", s.ID)
				return nil
			}
			return err
		}
		if !again {
			r.say(ctx, farewellMessage)
			r.logger.Info("player quit", "session", s.ID)
			return nil
		}
	}
}

func (r *Runner) resume(ctx context.Context) Session {
	s, err := r.eng.Load(ctx)
	switch {
	case err == nil:
		r.out.Notice("Game loaded.")
		return s
	case errors.Is(err, ErrUnknownScene):
		r.say(ctx, UnknownStateMessage)
		s, _ = r.eng.Conclude(ctx, s, story.Ending{Outcome: story.OutcomeUnknown, Message: UnknownStateMessage})
		return s
	default:
		r.out.Warn("Could not load the saved game. Starting a new game.")
		return r.eng.Start()
	}
}

// Play runs s until it reaches an ending.
func (r *Runner) Play(ctx context.Context, s Session) (Session, error) {
	for {
		next, f, err := r.eng.Enter(s)
		if err != nil {
			return s, err
		}
		s = next
		r.render(ctx, f)

		if f.Ending != nil {
			r.say(ctx, f.Ending.Message)
			s, err = r.eng.Conclude(ctx, s, *f.Ending)
			var writeErr *PersistenceWriteError
			if errors.As(err, &writeErr) {
				r.out.Warn("Could not save the game.")
			} else if err == nil {
				r.out.Notice("Game saved.")
			}
			r.showInventory(s.Player)
			return s, nil
		}

		n, err := r.Choose(ctx, f.Choices)
		if err != nil {
			return s, err
		}
		step, err := r.eng.Apply(s, n)
		if err != nil {
			return s, err
		}
		for _, it := range step.Acquired {
			r.out.Notice(acquiredNotice(it))
		}
		s = step.Session
	}
}

// Choose shows labels as a numbered menu and reads until the player picks
// one of them. It returns the 1-based selection.
func (r *Runner) Choose(ctx context.Context, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, ErrNoChoices
	}
	for i, label := range labels {
		r.say(ctx, fmt.Sprintf("%d. %s", i+1, label))
	}
	for {
		r.out.Prompt(ChoicePrompt(len(labels)))
		line, err := r.in.ReadLine(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInputClosed, err)
		}
		n, err := ParseSelection(line, len(labels))
		if err != nil {
			var selErr *SelectionError
			if errors.As(err, &selErr) {
				r.say(ctx, selErr.Hint())
			}
			r.logger.Debug("invalid selection", "input", line, "error", err)
			continue
		}
		return n, nil
	}
}

func (r *Runner) askReplay(ctx context.Context) (bool, error) {
	r.say(ctx, "Would you like to play again?")
	n, err := r.Choose(ctx, []string{"Yes", "No"})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Runner) render(ctx context.Context, f Frame) {
	if f.Title != "" {
		r.out.Heading(f.Title)
	}
	for _, l := range f.Lines {
		switch l.Kind {
		case LineAcquired:
			r.out.Notice(acquiredNotice(l.Item))
		default:
			r.say(ctx, l.Text)
		}
	}
}

func (r *Runner) showInventory(p models.Player) {
	r.out.Notice("Your inventory:")
	items := p.Inventory.List()
	if len(items) == 0 {
		r.out.Notice("(empty)")
		return
	}
	for _, it := range items {
		r.out.Notice(fmt.Sprintf("- %s: %s", it.Name, it.Description))
	}
}

// say narrates text. An interrupted render is logged and play goes on.
func (r *Runner) say(ctx context.Context, text string) {
	if err := r.out.Narrate(ctx, text); err != nil {
		if errors.Is(err, ErrRenderInterrupted) {
			r.logger.Warn("render interrupted", "error", err)
			return
		}
		r.logger.Error("render failed", "error", err)
	}
}

func acquiredNotice(it models.Item) string {
	return "You obtained: " + it.Name
}
