package models

import (
	"strings"
	"time"
)

// Item is something the player can carry. Items are compared by name.
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Inventory is the ordered list of items a player has picked up.
// Items are kept in the order they were found and are never removed.
type Inventory struct {
	items []Item
}

// NewInventory returns an inventory holding items in the given order.
func NewInventory(items ...Item) Inventory {
	inv := Inventory{}
	for _, it := range items {
		inv.Add(it)
	}
	return inv
}

// Add appends item to the end of the inventory.
func (inv *Inventory) Add(item Item) {
	inv.items = append(inv.items, item)
}

// Has reports whether an item with the given name is held, ignoring case.
func (inv Inventory) Has(name string) bool {
	for _, it := range inv.items {
		if strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

// List returns a copy of the items in the order they were added.
func (inv Inventory) List() []Item {
	out := make([]Item, len(inv.items))
	copy(out, inv.items)
	return out
}

// Len returns the number of items held.
func (inv Inventory) Len() int {
	return len(inv.items)
}

// Clone returns an inventory that shares no backing storage with inv.
func (inv Inventory) Clone() Inventory {
	return Inventory{items: inv.List()}
}

// Player is the identity of one playthrough.
type Player struct {
	Inventory Inventory
}

// NewPlayer returns a player with an empty inventory.
func NewPlayer() Player {
	return Player{}
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	return Player{Inventory: p.Inventory.Clone()}
}

// SceneState is the coarse narrative location recorded in a save.
type SceneState string

const (
	SceneBeach SceneState = "BEACH"
	SceneCave  SceneState = "CAVE"
	SceneTrail SceneState = "TRAIL"
)

// Scenes lists every known scene state.
var Scenes = []SceneState{SceneBeach, SceneCave, SceneTrail}

// Valid reports whether s is one of the known scene states.
func (s SceneState) Valid() bool {
	for _, known := range Scenes {
		if s == known {
			return true
		}
	}
	return false
}

// SaveRecord is the single persisted snapshot of a playthrough.
type SaveRecord struct {
	SessionID string
	Player    Player
	Scene     SceneState
	SavedAt   time.Time
}
