package sim

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/persistence"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/quests"
	"github.com/talgya/prison-world/internal/weather"
	"github.com/talgya/prison-world/internal/worldstate"
)

// SaveVersion is embedded in every blob; mismatching versions reject the
// load with ErrSchemaMismatch.
const SaveVersion = 1

// SaveBlob is the complete serialized campaign. Opaque to callers.
type SaveBlob struct {
	Version      int                 `json:"version"`
	Timestamp    time.Time           `json:"timestamp"`
	Seed         int64               `json:"seed"`
	Mode         Mode                `json:"mode"`
	World        worldstate.Snapshot `json:"world"`
	Player       player.Blob         `json:"player"`
	NPCs         npcs.Blob           `json:"npcs"`
	Quests       quests.Blob         `json:"quests"`
	Consequences consequence.Blob    `json:"consequences"`
	Statistics   Statistics          `json:"statistics"`
	Discovered   []string            `json:"discovered_locations"`
	Secrets      []string            `json:"discovered_secrets"`
	TotalMinutes int                 `json:"total_minutes"`
	LastAutosave int                 `json:"last_autosave"`
}

// Serialize captures the full simulation state as an opaque blob.
func (s *Simulation) Serialize() ([]byte, error) {
	blob := SaveBlob{
		Version:      SaveVersion,
		Timestamp:    time.Now().UTC(),
		Seed:         s.seed,
		Mode:         s.mode,
		World:        s.World.Snapshot(),
		Player:       s.Player.ToBlob(),
		NPCs:         s.NPCs.ToBlob(),
		Quests:       s.Quests.ToBlob(),
		Consequences: s.Scheduler.ToBlob(),
		Statistics:   s.stats,
		Discovered:   sortedSet(s.discovered),
		Secrets:      sortedSet(s.secrets),
		TotalMinutes: s.totalMinutes,
		LastAutosave: s.lastAutosave,
	}
	return json.Marshal(blob)
}

// Deserialize restores the simulation from a blob produced by Serialize.
// Every field that affects future behavior is restored; the statistics
// counters of the running session are replaced, and the bus history is left
// as it is.
func (s *Simulation) Deserialize(data []byte) error {
	var blob SaveBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if blob.Version != SaveVersion {
		return fmt.Errorf("%w: save version %d, supported %d", ErrSchemaMismatch, blob.Version, SaveVersion)
	}

	s.seed = blob.Seed
	s.Weather = weather.NewSystem(blob.Seed)
	s.World.Restore(blob.World)
	s.Player = player.FromBlob(blob.Player, s.seed)
	s.NPCs = npcs.FromBlob(blob.NPCs)

	restoredScheduler := consequence.FromBlob(blob.Consequences)
	*s.Scheduler = *restoredScheduler

	if err := s.Quests.Restore(blob.Quests); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	s.stats = blob.Statistics
	s.discovered = toSet(blob.Discovered)
	s.secrets = toSet(blob.Secrets)
	s.totalMinutes = blob.TotalMinutes
	s.lastAutosave = blob.LastAutosave
	s.mode = blob.Mode
	if s.mode == "" {
		s.mode = ModePlaying
	}
	return nil
}

// SaveSlot serializes into a persistence slot.
func (s *Simulation) SaveSlot(slot int) error {
	if s.db == nil {
		return fmt.Errorf("no save database configured")
	}
	blob, err := s.Serialize()
	if err != nil {
		return err
	}
	return s.db.WriteSlot(slot, SaveVersion, blob, s.World.GameTime, s.World.Day)
}

// LoadSlot restores from a persistence slot.
func (s *Simulation) LoadSlot(slot int) error {
	if s.db == nil {
		return fmt.Errorf("no save database configured")
	}
	blob, version, err := s.db.ReadSlot(slot)
	if err != nil {
		if err == persistence.ErrNoSave {
			return fmt.Errorf("%w: save slot %d", ErrUnknownEntity, slot)
		}
		return err
	}
	if version != SaveVersion {
		return fmt.Errorf("%w: slot version %d, supported %d", ErrSchemaMismatch, version, SaveVersion)
	}
	return s.Deserialize(blob)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, item := range list {
		set[item] = struct{}{}
	}
	return set
}
