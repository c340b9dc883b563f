package skills

import "sort"

// Snapshot is the serializable image of the skill table.
type Snapshot struct {
	Skills             []Skill `json:"skills"`
	LearningMultiplier float64 `json:"learning_multiplier"`
}

// Snapshot captures every skill for save-game serialization. Specialization
// sets are flattened into sorted lists so the blob is stable.
func (sys *System) Snapshot() Snapshot {
	snap := Snapshot{LearningMultiplier: sys.LearningMultiplier}
	for _, def := range Definitions {
		skill := sys.skills[def.ID]
		copied := *skill
		copied.MuscleMemory = copyMuscleMemory(skill.MuscleMemory)
		copied.SpecializationList = nil
		for name := range skill.Specializations {
			copied.SpecializationList = append(copied.SpecializationList, name)
		}
		sort.Strings(copied.SpecializationList)
		copied.Specializations = nil
		snap.Skills = append(snap.Skills, copied)
	}
	return snap
}

// Restore replaces the skill table from a snapshot. Skills missing from the
// blob keep their current state (forward compatibility with new catalogue
// entries).
func (sys *System) Restore(snap Snapshot) {
	if snap.LearningMultiplier != 0 {
		sys.LearningMultiplier = snap.LearningMultiplier
	}
	for i := range snap.Skills {
		saved := snap.Skills[i]
		skill, ok := sys.skills[saved.ID]
		if !ok {
			continue
		}
		restored := saved
		restored.MuscleMemory = copyMuscleMemory(saved.MuscleMemory)
		restored.Specializations = nil
		for _, name := range saved.SpecializationList {
			if restored.Specializations == nil {
				restored.Specializations = make(map[string]struct{})
			}
			restored.Specializations[name] = struct{}{}
		}
		restored.SpecializationList = nil
		restored.Synergies = synergyTable[saved.ID]
		*skill = restored
	}
}

func copyMuscleMemory(m map[string]*MuscleMemory) map[string]*MuscleMemory {
	if m == nil {
		return nil
	}
	out := make(map[string]*MuscleMemory, len(m))
	for k, v := range m {
		entry := *v
		out[k] = &entry
	}
	return out
}
