// Package content loads static game catalogues from JSON files: items,
// locations, NPCs, dialogue trees, quest seeds, and per-system config. The
// simulation core consumes the loaded records and never touches file paths
// itself.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/quests"
)

// Item is one catalogue entry.
type Item struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"` // weapon, armor, tool, consumable, material, misc
	Name       string         `json:"name"`
	Slots      []string       `json:"slots,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Location is one map node.
type Location struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Region       string            `json:"region,omitempty"`
	Descriptions []string          `json:"descriptions,omitempty"`
	Exits        map[string]string `json:"exits,omitempty"` // direction -> location id
	Objects      []string          `json:"objects,omitempty"`
	Items        []string          `json:"items,omitempty"`
	NPCs         []string          `json:"npcs,omitempty"`
}

// DialogueOption is one selectable line in a dialogue node.
type DialogueOption struct {
	Text         string         `json:"text"`
	Requirements map[string]any `json:"requirements,omitempty"`
	Effects      map[string]any `json:"effects,omitempty"`
	NextNode     string         `json:"next_node,omitempty"`
	Outcome      string         `json:"outcome,omitempty"` // continue, end, trade, fight, quest
}

// DialogueNode is one speaker beat plus its options.
type DialogueNode struct {
	SpeakerText string           `json:"speaker_text"`
	Options     []DialogueOption `json:"options,omitempty"`
}

// DialogueTree maps node ids to nodes.
type DialogueTree map[string]DialogueNode

// Loader reads and caches the catalogue files under a content root.
type Loader struct {
	root string

	items     map[string]Item
	locations map[string]Location
	npcList   []npcs.NPC
	dialogues map[string]DialogueTree
	npcTrees  map[string]string // npc id -> dialogue tree id
	seeds     []*quests.Seed
	sysConfig map[string]json.RawMessage
}

// NewLoader creates a loader rooted at dir. Files load lazily and cache.
func NewLoader(dir string) *Loader {
	return &Loader{root: dir, sysConfig: make(map[string]json.RawMessage)}
}

// ClearCache drops everything cached; the next access reloads from disk.
func (l *Loader) ClearCache() {
	l.items = nil
	l.locations = nil
	l.npcList = nil
	l.dialogues = nil
	l.npcTrees = nil
	l.seeds = nil
	l.sysConfig = make(map[string]json.RawMessage)
}

func (l *Loader) readJSON(rel string, out any) error {
	data, err := os.ReadFile(filepath.Join(l.root, rel))
	if err != nil {
		return fmt.Errorf("read content %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse content %s: %w", rel, err)
	}
	return nil
}

// readShards merges every *.json file in a directory into flat id->raw
// records; a missing directory is not an error.
func readShards[T any](l *Loader, dir string) (map[string]T, error) {
	out := make(map[string]T)
	entries, err := os.ReadDir(filepath.Join(l.root, dir))
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan content %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		var shard map[string]T
		if err := l.readJSON(filepath.Join(dir, name), &shard); err != nil {
			return nil, err
		}
		for id, rec := range shard {
			out[id] = rec
		}
	}
	return out, nil
}

// Items returns the item catalogue, optionally filtered by type.
func (l *Loader) Items(itemType string) (map[string]Item, error) {
	if l.items == nil {
		items, err := readShards[Item](l, "items")
		if err != nil {
			return nil, err
		}
		for id, item := range items {
			item.ID = id
			items[id] = item
		}
		l.items = items
	}
	if itemType == "" {
		return l.items, nil
	}
	filtered := make(map[string]Item)
	for id, item := range l.items {
		if item.Type == itemType {
			filtered[id] = item
		}
	}
	return filtered, nil
}

// Item returns one item record.
func (l *Loader) Item(id string) (Item, error) {
	items, err := l.Items("")
	if err != nil {
		return Item{}, err
	}
	item, ok := items[id]
	if !ok {
		return Item{}, fmt.Errorf("unknown item %q", id)
	}
	return item, nil
}

// Locations returns the location catalogue, optionally filtered by region.
func (l *Loader) Locations(region string) (map[string]Location, error) {
	if l.locations == nil {
		locs, err := readShards[Location](l, "locations")
		if err != nil {
			return nil, err
		}
		for id, loc := range locs {
			loc.ID = id
			locs[id] = loc
		}
		l.locations = locs
	}
	if region == "" {
		return l.locations, nil
	}
	filtered := make(map[string]Location)
	for id, loc := range l.locations {
		if loc.Region == region {
			filtered[id] = loc
		}
	}
	return filtered, nil
}

// Location returns one location record.
func (l *Loader) Location(id string) (Location, error) {
	locs, err := l.Locations("")
	if err != nil {
		return Location{}, err
	}
	loc, ok := locs[id]
	if !ok {
		return Location{}, fmt.Errorf("unknown location %q", id)
	}
	return loc, nil
}

// NPCs returns the NPC catalogue records.
func (l *Loader) NPCs() ([]npcs.NPC, error) {
	if l.npcList == nil {
		var file struct {
			NPCs []npcs.NPC `json:"npcs"`
		}
		if err := l.readJSON("npcs.json", &file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				l.npcList = []npcs.NPC{}
				return l.npcList, nil
			}
			return nil, err
		}
		l.npcList = file.NPCs
	}
	return l.npcList, nil
}

// Dialogues returns every dialogue tree plus the npc->tree assignment.
func (l *Loader) Dialogues() (map[string]DialogueTree, map[string]string, error) {
	if l.dialogues == nil {
		var file struct {
			Trees       map[string]DialogueTree `json:"trees"`
			NPCTrees    map[string]string       `json:"npc_trees"`
			DefaultTree string                  `json:"default_tree,omitempty"`
		}
		if err := l.readJSON("dialogues.json", &file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				l.dialogues = map[string]DialogueTree{}
				l.npcTrees = map[string]string{}
				return l.dialogues, l.npcTrees, nil
			}
			return nil, nil, err
		}
		l.dialogues = file.Trees
		l.npcTrees = file.NPCTrees
		if l.npcTrees == nil {
			l.npcTrees = map[string]string{}
		}
	}
	return l.dialogues, l.npcTrees, nil
}

// QuestSeeds returns the seed catalogue; when the content pack carries none,
// the built-in library is used.
func (l *Loader) QuestSeeds() ([]*quests.Seed, error) {
	if l.seeds == nil {
		var file struct {
			Seeds []*quests.Seed `json:"seeds"`
		}
		err := l.readJSON(filepath.Join("quests", "seeds.json"), &file)
		switch {
		case err == nil && len(file.Seeds) > 0:
			l.seeds = file.Seeds
		case err == nil || errors.Is(err, os.ErrNotExist):
			l.seeds = quests.BuiltinSeeds()
		default:
			return nil, err
		}
	}
	return l.seeds, nil
}

// SystemConfig loads systems/<system>/<name>.json into out.
func (l *Loader) SystemConfig(system, name string, out any) error {
	key := system + "/" + name
	raw, ok := l.sysConfig[key]
	if !ok {
		data, err := os.ReadFile(filepath.Join(l.root, "systems", system, name+".json"))
		if err != nil {
			return fmt.Errorf("read system config %s: %w", key, err)
		}
		raw = data
		l.sysConfig[key] = raw
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse system config %s: %w", key, err)
	}
	return nil
}
