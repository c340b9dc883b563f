package quests

import "fmt"

// Blob is the serializable image of the engine. Seeds are static content and
// are not serialized; quests reference them by id on load.
type Blob struct {
	Active    []Quest  `json:"active"`
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
}

// ToBlob captures active quests and the terminal sets.
func (e *Engine) ToBlob() Blob {
	blob := Blob{
		Completed: e.CompletedIDs(),
		Failed:    e.FailedIDs(),
	}
	for _, q := range e.ActiveQuests() {
		copied := *q
		inv := *q.Investigation
		copied.Investigation = &inv
		blob.Active = append(blob.Active, copied)
	}
	return blob
}

// Restore replaces the engine's quest state from a blob. Every active quest
// must reference a registered seed; a missing seed rejects the load.
func (e *Engine) Restore(blob Blob) error {
	active := make(map[string]*Quest, len(blob.Active))
	for i := range blob.Active {
		saved := blob.Active[i]
		seed, ok := e.seeds[saved.SeedID]
		if !ok {
			return fmt.Errorf("save references unregistered quest seed %q", saved.SeedID)
		}
		q := saved
		q.Seed = seed
		if q.Investigation == nil {
			q.Investigation = newInvestigation()
		} else {
			inv := *saved.Investigation
			inv.rebuildSets()
			q.Investigation = &inv
		}
		active[q.ID()] = &q
	}
	e.active = active

	e.completed = make(map[string]struct{}, len(blob.Completed))
	for _, id := range blob.Completed {
		e.completed[id] = struct{}{}
	}
	e.failed = make(map[string]struct{}, len(blob.Failed))
	for _, id := range blob.Failed {
		e.failed[id] = struct{}{}
	}
	return nil
}
