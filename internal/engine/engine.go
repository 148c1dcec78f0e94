package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tatianab/island-adventure/internal/models"
	"github.com/tatianab/island-adventure/internal/story"
)

// UnknownStateMessage is shown when a restored save names a scene the story
// does not have.
const UnknownStateMessage = "The game state is unknown. Ending the game."

var (
	// ErrUnknownScene is returned when a save names an unrecognized scene.
	ErrUnknownScene = errors.New("unknown scene state")
	// ErrUnknownNode is returned when a session points at a node the story
	// does not have.
	ErrUnknownNode = errors.New("unknown story node")
	// ErrSessionEnded is returned when a choice is applied to a finished session.
	ErrSessionEnded = errors.New("session has ended")
	// ErrNoGateway is returned by Save and Load on an engine built without
	// a save gateway.
	ErrNoGateway = errors.New("no save gateway")
)

// PersistenceWriteError reports a failed save. The session is still valid.
type PersistenceWriteError struct {
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("save game: %v", e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}

// Gateway stores the single save slot.
type Gateway interface {
	Save(ctx context.Context, rec models.SaveRecord) error
	Load(ctx context.Context) (models.SaveRecord, error)
}

// Status is where a session is in its lifecycle.
type Status int

const (
	StatusAwaitingStart Status = iota
	StatusInScene
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusAwaitingStart:
		return "awaiting_start"
	case StatusInScene:
		return "in_scene"
	case StatusEnded:
		return "ended"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Session is the whole state of one playthrough. Engine methods take a
// Session and return the next one; they never modify the one passed in.
type Session struct {
	ID      string
	Player  models.Player
	Scene   models.SceneState
	Node    story.NodeID
	Status  Status
	Outcome story.Outcome
}

// LineKind says how a frame line is shown.
type LineKind int

const (
	LineNarration LineKind = iota
	LineAcquired
)

// Line is one line of output produced by entering nodes.
type Line struct {
	Kind LineKind
	Text string
	Item models.Item
}

// Frame is everything shown between two decisions: narration and pickups,
// then either the choice labels or the ending.
type Frame struct {
	Title   string
	Lines   []Line
	Choices []string
	Ending  *story.Ending
}

// Step is the result of applying a choice.
type Step struct {
	Session  Session
	Acquired []models.Item
}

// Engine walks a story graph. It holds no per-session state.
type Engine struct {
	graph  *story.Graph
	store  Gateway
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine returns an engine for graph that saves into store. A nil store
// makes every save and load fail with ErrNoGateway.
func NewEngine(graph *story.Graph, store Gateway, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		graph:  graph,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Graph returns the story the engine plays.
func (e *Engine) Graph() *story.Graph {
	return e.graph
}

// Start begins a new playthrough with a fresh player at the story's start.
func (e *Engine) Start() Session {
	s := Session{
		ID:     uuid.NewString(),
		Player: models.NewPlayer(),
		Scene:  models.SceneBeach,
		Node:   e.graph.Start,
		Status: StatusInScene,
	}
	e.logger.Info("playthrough started", "session", s.ID, "node", s.Node)
	return s
}

// Enter runs the current node and any automatic continuations, stopping at
// the first node that offers choices or ends the playthrough.
func (e *Engine) Enter(s Session) (Session, Frame, error) {
	var f Frame
	if s.Status != StatusInScene {
		return s, f, fmt.Errorf("enter %q: %w", s.Node, ErrSessionEnded)
	}
	s.Player = s.Player.Clone()

	id := s.Node
	for {
		n, ok := e.graph.Node(id)
		if !ok {
			return s, f, fmt.Errorf("%w: %q", ErrUnknownNode, id)
		}
		s.Node = id
		if n.Scene != "" {
			s.Scene = n.Scene
			e.logger.Info("entered scene", "session", s.ID, "scene", s.Scene, "node", s.Node)
		}
		if n.Title != "" {
			f.Title = n.Title
		}

		for _, b := range n.Beats {
			if b.Take != nil {
				s.Player.Inventory.Add(*b.Take)
				f.Lines = append(f.Lines, Line{Kind: LineAcquired, Text: b.Take.Name, Item: *b.Take})
				e.logger.Info("item acquired", "session", s.ID, "item", b.Take.Name)
				continue
			}
			f.Lines = append(f.Lines, Line{Kind: LineNarration, Text: b.Say})
		}

		switch {
		case n.Terminal():
			ending := *n.Ending
			f.Ending = &ending
			return s, f, nil
		case len(n.Choices) > 0:
			for _, c := range n.Choices {
				f.Choices = append(f.Choices, c.Label)
			}
			return s, f, nil
		default:
			id = n.Then
		}
	}
}

// Apply takes the n-th (1-based) choice of the current node.
func (e *Engine) Apply(s Session, n int) (Step, error) {
	if s.Status != StatusInScene {
		return Step{Session: s}, ErrSessionEnded
	}
	node, ok := e.graph.Node(s.Node)
	if !ok {
		return Step{Session: s}, fmt.Errorf("%w: %q", ErrUnknownNode, s.Node)
	}
	if n < 1 || n > len(node.Choices) {
		return Step{Session: s}, &SelectionError{Input: fmt.Sprint(n), Count: len(node.Choices)}
	}
	c := node.Choices[n-1]

	s.Player = s.Player.Clone()
	for _, it := range c.Take {
		s.Player.Inventory.Add(it)
		e.logger.Info("item acquired", "session", s.ID, "item", it.Name)
	}
	e.logger.Info("choice made", "session", s.ID, "node", s.Node, "choice", n, "label", c.Label, "next", c.Next)
	s.Node = c.Next

	acquired := make([]models.Item, len(c.Take))
	copy(acquired, c.Take)
	return Step{Session: s, Acquired: acquired}, nil
}

// Conclude ends the session with ending and saves it. A failed save is
// returned as a *PersistenceWriteError; the returned session has ended
// either way. Sessions ending in an unknown state are not saved. The save
// ignores cancellation of ctx so an interrupted ending is still recorded.
func (e *Engine) Conclude(ctx context.Context, s Session, ending story.Ending) (Session, error) {
	s.Status = StatusEnded
	s.Outcome = ending.Outcome
	e.logger.Info("game ended", "session", s.ID, "scene", s.Scene, "node", s.Node, "outcome", s.Outcome, "message", ending.Message)
	if ending.Outcome == story.OutcomeUnknown {
		return s, nil
	}
	return s, e.Save(context.WithoutCancel(ctx), s)
}

// Save writes the session's player and scene to the save slot.
func (e *Engine) Save(ctx context.Context, s Session) error {
	rec := models.SaveRecord{
		SessionID: s.ID,
		Player:    s.Player.Clone(),
		Scene:     s.Scene,
		SavedAt:   e.now(),
	}
	if e.store == nil {
		e.logger.Error("save failed", "session", s.ID, "error", ErrNoGateway)
		return &PersistenceWriteError{Err: ErrNoGateway}
	}
	if err := e.store.Save(ctx, rec); err != nil {
		e.logger.Error("save failed", "session", s.ID, "error", err)
		return &PersistenceWriteError{Err: err}
	}
	e.logger.Info("game saved", "session", s.ID, "scene", s.Scene, "items", s.Player.Inventory.Len())
	return nil
}

// Load reads the save slot and resumes it. Read failures are returned as a
// *models.LoadError; an unrecognized scene returns an ended session and
// ErrUnknownScene.
func (e *Engine) Load(ctx context.Context) (Session, error) {
	if e.store == nil {
		err := &models.LoadError{Source: "save slot", Err: ErrNoGateway}
		e.logger.Warn("load failed", "error", err)
		return Session{}, err
	}
	rec, err := e.store.Load(ctx)
	if err != nil {
		var loadErr *models.LoadError
		if !errors.As(err, &loadErr) {
			err = &models.LoadError{Source: "save slot", Err: err}
		}
		e.logger.Warn("load failed", "error", err)
		return Session{}, err
	}
	e.logger.Info("game loaded", "session", rec.SessionID, "scene", rec.Scene, "items", rec.Player.Inventory.Len())
	return e.Resume(rec)
}

// Resume re-enters the entry node of the record's scene. Saves only know
// the coarse scene, so a playthrough saved part way through a scene starts
// that scene over.
func (e *Engine) Resume(rec models.SaveRecord) (Session, error) {
	s := Session{
		ID:     rec.SessionID,
		Player: rec.Player.Clone(),
		Scene:  rec.Scene,
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	id, ok := e.graph.Entry(rec.Scene)
	if !ok {
		s.Status = StatusEnded
		s.Outcome = story.OutcomeUnknown
		e.logger.Warn("unknown scene state", "session", s.ID, "scene", rec.Scene)
		return s, fmt.Errorf("%w: %q", ErrUnknownScene, rec.Scene)
	}
	s.Node = id
	s.Status = StatusInScene
	return s, nil
}
