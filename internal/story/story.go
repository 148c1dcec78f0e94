// Package story holds the branching narrative as an explicit graph of nodes.
//
// A node runs its beats in order when it is entered (narration and item
// pickups), then either offers choices, continues to another node, or ends
// the playthrough. Choices name the node they lead to and the items they
// hand over, so the whole graph can be walked without running the game.
package story

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/tatianab/island-adventure/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed island.yaml
var islandYAML []byte

// NodeID names a node in the graph.
type NodeID string

// Outcome classifies an ending.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeUnknown ends a restored session whose scene is not recognized.
	OutcomeUnknown Outcome = "unknown"
)

// Beat is one step of a node: either a line of narration or an item pickup.
type Beat struct {
	Say  string       `yaml:"say,omitempty"`
	Take *models.Item `yaml:"take,omitempty"`
}

// Choice is one menu option. Picking it hands over Take, in order, and moves
// to Next.
type Choice struct {
	Label string        `yaml:"label"`
	Next  NodeID        `yaml:"next"`
	Take  []models.Item `yaml:"take,omitempty"`
}

// Ending finishes a playthrough.
type Ending struct {
	Outcome Outcome `yaml:"outcome"`
	Message string  `yaml:"message"`
}

// Node is a point in the story.
type Node struct {
	ID NodeID `yaml:"id"`
	// Scene, when set, becomes the session's coarse location on entry.
	Scene   models.SceneState `yaml:"scene,omitempty"`
	Title   string            `yaml:"title,omitempty"`
	Beats   []Beat            `yaml:"beats"`
	Choices []Choice          `yaml:"choices,omitempty"`
	Then    NodeID            `yaml:"then,omitempty"`
	Ending  *Ending           `yaml:"ending,omitempty"`
}

// Terminal reports whether the node ends the playthrough.
func (n *Node) Terminal() bool {
	return n.Ending != nil
}

// Graph is a whole story.
type Graph struct {
	Title string `yaml:"title"`
	Start NodeID `yaml:"start"`
	// Scenes maps each coarse scene to the node a restored session resumes at.
	Scenes map[models.SceneState]NodeID `yaml:"scenes"`
	// Items is the catalog the nodes draw from.
	Items map[string]models.Item `yaml:"items,omitempty"`
	Nodes []Node                 `yaml:"nodes"`

	index map[NodeID]*Node
}

// Island returns the built-in story.
func Island() (*Graph, error) {
	return Parse(islandYAML)
}

// Parse decodes and validates a story graph.
func Parse(data []byte) (*Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var g Graph
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("parse story: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if g.index == nil {
		g.buildIndex()
	}
	n, ok := g.index[id]
	return n, ok
}

// Entry returns the node a session in the given scene resumes at.
func (g *Graph) Entry(scene models.SceneState) (NodeID, bool) {
	id, ok := g.Scenes[scene]
	return id, ok
}

func (g *Graph) buildIndex() {
	g.index = make(map[NodeID]*Node, len(g.Nodes))
	for i := range g.Nodes {
		g.index[g.Nodes[i].ID] = &g.Nodes[i]
	}
}

// Validate checks that the graph can always be played to an ending: every
// node has exactly one way to continue, every reference resolves, every node
// is reachable from the start, and automatic continuations never loop.
func (g *Graph) Validate() error {
	var errs []error

	g.index = make(map[NodeID]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node %d has no id", i))
			continue
		}
		if _, dup := g.index[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node %q is defined twice", n.ID))
			continue
		}
		g.index[n.ID] = n
	}

	if _, ok := g.index[g.Start]; !ok {
		errs = append(errs, fmt.Errorf("start node %q does not exist", g.Start))
	}

	for _, scene := range models.Scenes {
		id, ok := g.Scenes[scene]
		if !ok {
			errs = append(errs, fmt.Errorf("scene %s has no entry node", scene))
			continue
		}
		if _, ok := g.index[id]; !ok {
			errs = append(errs, fmt.Errorf("scene %s enters unknown node %q", scene, id))
		}
	}
	for scene := range g.Scenes {
		if !scene.Valid() {
			errs = append(errs, fmt.Errorf("unknown scene %q", scene))
		}
	}

	for i := range g.Nodes {
		errs = append(errs, g.validateNode(&g.Nodes[i])...)
	}

	if len(errs) == 0 {
		errs = append(errs, g.validateReachable()...)
		errs = append(errs, g.validateThenChains()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid story: %w", errors.Join(errs...))
	}
	return nil
}

func (g *Graph) validateNode(n *Node) []error {
	var errs []error

	continuations := 0
	if len(n.Choices) > 0 {
		continuations++
	}
	if n.Then != "" {
		continuations++
	}
	if n.Ending != nil {
		continuations++
	}
	if continuations != 1 {
		errs = append(errs, fmt.Errorf("node %q must have exactly one of choices, then or ending", n.ID))
	}

	if n.Scene != "" && !n.Scene.Valid() {
		errs = append(errs, fmt.Errorf("node %q has unknown scene %q", n.ID, n.Scene))
	}

	for j, b := range n.Beats {
		if (b.Say == "") == (b.Take == nil) {
			errs = append(errs, fmt.Errorf("node %q beat %d must either say or take", n.ID, j+1))
		}
	}

	for j, c := range n.Choices {
		if c.Label == "" {
			errs = append(errs, fmt.Errorf("node %q choice %d has no label", n.ID, j+1))
		}
		if _, ok := g.index[c.Next]; !ok {
			errs = append(errs, fmt.Errorf("node %q choice %d leads to unknown node %q", n.ID, j+1, c.Next))
		}
	}

	if n.Then != "" {
		if _, ok := g.index[n.Then]; !ok {
			errs = append(errs, fmt.Errorf("node %q continues to unknown node %q", n.ID, n.Then))
		}
	}

	if n.Terminal() {
		switch n.Ending.Outcome {
		case OutcomeSuccess, OutcomeFailure:
		default:
			errs = append(errs, fmt.Errorf("node %q has invalid ending outcome %q", n.ID, n.Ending.Outcome))
		}
	}
	return errs
}

func (g *Graph) validateReachable() []error {
	seen := map[NodeID]bool{}
	g.Walk(func(n *Node) {
		seen[n.ID] = true
	})

	var errs []error
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			errs = append(errs, fmt.Errorf("node %q is unreachable", n.ID))
		}
	}
	return errs
}

// validateThenChains rejects cycles made only of automatic continuations,
// which would loop forever without asking the player anything.
func (g *Graph) validateThenChains() []error {
	var errs []error
	for _, n := range g.Nodes {
		visited := map[NodeID]bool{n.ID: true}
		cur := g.index[n.ID]
		for cur.Then != "" {
			if visited[cur.Then] {
				errs = append(errs, fmt.Errorf("node %q continues into a loop", n.ID))
				break
			}
			visited[cur.Then] = true
			cur = g.index[cur.Then]
		}
	}
	return errs
}

// Walk visits every node reachable from the start or from a scene entry,
// in breadth-first order.
func (g *Graph) Walk(fn func(*Node)) {
	seen := map[NodeID]bool{}
	queue := []NodeID{g.Start}
	for _, scene := range models.Scenes {
		if id, ok := g.Scenes[scene]; ok {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		fn(n)
		for _, c := range n.Choices {
			queue = append(queue, c.Next)
		}
		if n.Then != "" {
			queue = append(queue, n.Then)
		}
	}
}
