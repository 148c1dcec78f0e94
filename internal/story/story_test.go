package story

import (
	"strings"
	"testing"

	"github.com/tatianab/island-adventure/internal/models"
)

func TestIslandIsValid(t *testing.T) {
	g, err := Island()
	if err != nil {
		t.Fatalf("Failed to load island: %v", err)
	}
	if g.Start != "beach" {
		t.Errorf("Expected start beach, got %s", g.Start)
	}
	for _, scene := range models.Scenes {
		id, ok := g.Entry(scene)
		if !ok {
			t.Fatalf("Expected an entry for %s", scene)
		}
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("Entry %s for %s does not exist", id, scene)
		}
		if n.Scene != scene {
			t.Errorf("Expected entry node %s to declare scene %s, got %s", id, scene, n.Scene)
		}
	}
}

func TestIslandEveryNodeContinues(t *testing.T) {
	g, err := Island()
	if err != nil {
		t.Fatal(err)
	}
	endings := 0
	g.Walk(func(n *Node) {
		if n.Terminal() {
			endings++
			if n.Ending.Message == "" {
				t.Errorf("Ending %s has no message", n.ID)
			}
			return
		}
		if len(n.Choices) == 0 && n.Then == "" {
			t.Errorf("Node %s offers nothing to do", n.ID)
		}
	})
	if endings != 4 {
		t.Errorf("Expected 4 endings, got %d", endings)
	}
}

const validStory = `
start: a
scenes: {BEACH: a, CAVE: a, TRAIL: a}
nodes:
  - id: a
    scene: BEACH
    beats: [{say: hello}]
    choices:
      - {label: go, next: b}
  - id: b
    beats: [{take: {name: Torch, description: light}}]
    ending: {outcome: success, message: done}
`

func TestParseValid(t *testing.T) {
	g, err := Parse([]byte(validStory))
	if err != nil {
		t.Fatalf("Expected valid story, got %v", err)
	}
	n, ok := g.Node("b")
	if !ok || n.Beats[0].Take == nil || n.Beats[0].Take.Name != "Torch" {
		t.Fatalf("Expected node b to take a Torch, got %+v", n)
	}
}

func TestParseSceneEntryIsReachable(t *testing.T) {
	data := strings.Replace(validStory, "CAVE: a", "CAVE: c", 1) + `  - id: c
    scene: CAVE
    beats: [{say: dark}]
    ending: {outcome: failure, message: lost}
`
	g, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Expected a node entered only on resume to count as reachable, got %v", err)
	}
	var visited []NodeID
	g.Walk(func(n *Node) {
		visited = append(visited, n.ID)
	})
	if len(visited) != 3 {
		t.Errorf("Expected to walk 3 nodes, got %v", visited)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		story string
		want  string
	}{
		{
			name:  "missing start",
			story: strings.Replace(validStory, "start: a", "start: z", 1),
			want:  "start node",
		},
		{
			name:  "dangling choice",
			story: strings.Replace(validStory, "next: b", "next: nowhere", 1),
			want:  "unknown node",
		},
		{
			name:  "no continuation",
			story: strings.Replace(validStory, "    ending: {outcome: success, message: done}\n", "", 1),
			want:  "exactly one of",
		},
		{
			name:  "missing scene entry",
			story: strings.Replace(validStory, ", TRAIL: a", "", 1),
			want:  "TRAIL has no entry",
		},
		{
			name:  "bad outcome",
			story: strings.Replace(validStory, "outcome: success", "outcome: maybe", 1),
			want:  "invalid ending outcome",
		},
		{
			name:  "empty beat",
			story: strings.Replace(validStory, "[{say: hello}]", "[{}]", 1),
			want:  "either say or take",
		},
		{
			name:  "unknown field",
			story: strings.Replace(validStory, "start: a", "start: a\nscript: run()", 1),
			want:  "parse story",
		},
		{
			name: "unreachable",
			story: validStory + `  - id: c
    beats: []
    ending: {outcome: failure, message: lost}
`,
			want: "unreachable",
		},
		{
			name: "then loop",
			story: strings.Replace(validStory, "      - {label: go, next: b}\n", "      - {label: go, next: c}\n", 1) + `  - id: c
    beats: []
    then: d
  - id: d
    beats: []
    then: c
`,
			want: "loop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.story))
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
