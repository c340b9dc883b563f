package quests

import "github.com/talgya/prison-world/internal/worldstate"

// BuiltinSeeds returns the shipped seed library. Content packs loaded from
// disk that carry seeds replace these entirely; tests and the default
// campaign rely on them.
func BuiltinSeeds() []*Seed {
	lt := func(v float64) worldstate.Condition {
		return worldstate.Condition{Operator: worldstate.OpLt, Value: worldstate.Float(v)}
	}
	gt := func(v float64) worldstate.Condition {
		return worldstate.Condition{Operator: worldstate.OpGt, Value: worldstate.Float(v)}
	}
	isTrue := worldstate.Literal(worldstate.Bool(true))

	return []*Seed{
		{
			QuestID: "food_conflict",
			Name:    "Hunger in the Walls",
			Kind:    KindGeneric,
			ActivationConditions: map[string]worldstate.Condition{
				"prison.food_supplies": lt(10),
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryOverheard, DiscoveryWitnessed},
			InitialClues: map[string]string{
				"corridor": "raised voices",
				"canteen":  "empty shelves where bread should be",
			},
			TimeSensitive: true,
			ExpiryHours:   96,
			Priority:      7,
			Branches: []Branch{
				{
					ID:          "diplomacy",
					Description: "Broker a rationing deal between the blocks",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "persuasion", Threshold: 5},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.rationing_agreed": worldstate.Bool(true),
						},
						Relationships: map[string]int{"prisoners": 15},
						Delayed: map[int]DelayedEffect{
							48: {
								Description:  "the merchant comes collecting",
								WorldChanges: map[string]worldstate.Value{"prison.merchant_waiting": worldstate.Bool(true)},
							},
						},
					},
					Dialogue: map[string]string{"resolution": "rationing_deal_struck"},
				},
				{
					ID:          "violence",
					Description: "Take the food stores by force",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "brawling", Threshold: 8},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.violence_level": worldstate.Int(7),
						},
						Relationships: map[string]int{"guards": -25, "prisoners": 5},
					},
					Dialogue: map[string]string{"resolution": "stores_taken_by_force"},
				},
			},
			DiscoveryDialogue: map[DiscoveryMethod]string{
				DiscoveryOverheard: "overheard_food_argument",
				DiscoveryWitnessed: "witnessed_food_theft",
			},
		},
		{
			QuestID: "keys_lost",
			Name:    "The Warden's Keys",
			Kind:    KindGeneric,
			ActivationConditions: map[string]worldstate.Condition{
				"guard.jenkins.lost_keys": isTrue,
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryFound, DiscoveryOverheard},
			InitialClues: map[string]string{
				"courtyard": "something glinting in the drain",
			},
			Priority: 6,
			Branches: []Branch{
				{
					ID:          "return_keys",
					Description: "Return the keys to Jenkins quietly",
					Requirements: []Requirement{
						{Kind: ReqItem, Target: "warden_keys"},
					},
					Consequences: BranchConsequences{
						Relationships: map[string]int{"jenkins": 30},
						Delayed: map[int]DelayedEffect{
							72: {
								Description:  "Jenkins offers help",
								WorldChanges: map[string]worldstate.Value{"guard.jenkins.offers_help": worldstate.Bool(true)},
							},
						},
					},
					MoralCategory: "diplomacy",
					Dialogue:      map[string]string{"resolution": "keys_returned_quietly"},
				},
				{
					ID:          "betrayal",
					Description: "Sell the keys to the Rats gang",
					Requirements: []Requirement{
						{Kind: ReqItem, Target: "warden_keys"},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.gang_has_keys": worldstate.Bool(true),
						},
						Relationships: map[string]int{"jenkins": -50, "rats_gang": 40},
						Delayed: map[int]DelayedEffect{
							120: {
								Description:   "Jenkins is demoted and blames the player",
								WorldChanges:  map[string]worldstate.Value{"guard.jenkins.demoted": worldstate.Bool(true)},
								NewQuestSeeds: []string{"jenkins_revenge"},
							},
						},
					},
					Dialogue: map[string]string{"resolution": "keys_sold_to_gang"},
				},
			},
		},
		{
			QuestID: "jenkins_revenge",
			Name:    "A Guard's Grudge",
			Kind:    KindRevenge,
			// Only activated by consequence of keys_lost/betrayal.
			ActivationConditions: map[string]worldstate.Condition{
				"quests.never": isTrue,
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryConsequence},
			InitialClues: map[string]string{
				"cell_block": "your bunk has been searched",
			},
			TimeSensitive: true,
			ExpiryHours:   72,
			Priority:      8,
			Branches: []Branch{
				{
					ID:          "diplomacy",
					Description: "Confront Jenkins and make amends",
					Consequences: BranchConsequences{
						Relationships: map[string]int{"jenkins": 20},
					},
				},
			},
		},
		{
			QuestID: "prison_escape",
			Name:    "The Road to Freedom",
			Kind:    KindEscape,
			ActivationConditions: map[string]worldstate.Condition{
				"player.imprisoned":  isTrue,
				"player.days_inside": gt(3),
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryOverheard, DiscoveryFound, DiscoveryWitnessed},
			InitialClues: map[string]string{
				"cell_5":    "the wall sounds hollow here",
				"kitchen":   "talk of an old cellar under the ovens",
				"courtyard": "the guards slacken during shift change",
			},
			Priority: 8,
			Branches: []Branch{
				{
					ID:          "stealth",
					Description: "Slip out through the tunnel at night",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "sneaking", Threshold: 10},
						{Kind: ReqItem, Target: "rope"},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.escape_attempted": worldstate.Bool(true),
						},
						Delayed: map[int]DelayedEffect{
							24: {
								Description:  "the manhunt begins",
								WorldChanges: map[string]worldstate.Value{"region.manhunt_active": worldstate.Bool(true)},
							},
						},
					},
				},
				{
					ID:          "violence",
					Description: "Fight through the gate during the riot",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "brawling", Threshold: 15},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.escape_attempted": worldstate.Bool(true),
							"prison.violence_level":   worldstate.Int(9),
						},
						Relationships: map[string]int{"guards": -60},
					},
				},
			},
		},
		{
			QuestID: "contraband_trade",
			Name:    "The Black Market",
			Kind:    KindContraband,
			ActivationConditions: map[string]worldstate.Condition{
				"economy.shortages.bread": gt(0.5),
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryTold, DiscoveryOverheard},
			InitialClues: map[string]string{
				"canteen": "prisoners whisper about missing staples",
				"cells":   "someone pays triple for cigarettes",
			},
			TimeSensitive: true,
			ExpiryHours:   120,
			Priority:      6,
			Branches: []Branch{
				{
					ID:          "diplomacy",
					Description: "Become the middleman and stabilize prices",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "trading", Threshold: 6},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"economy.black_market_stable": worldstate.Bool(true),
						},
						Relationships: map[string]int{"prisoners": 10, "merchants": 15},
					},
				},
			},
		},
		{
			QuestID: "gang_war",
			Name:    "Blood Feud",
			Kind:    KindGangWar,
			ActivationConditions: map[string]worldstate.Condition{
				"gang_tensions":   gt(0.7),
				"recent_violence": isTrue,
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryWitnessed, DiscoveryTold, DiscoveryConsequence},
			InitialClues: map[string]string{
				"courtyard": "the yard splits into two silent camps",
				"canteen":   "hostile stares across the tables",
			},
			TimeSensitive: true,
			ExpiryHours:   48,
			Priority:      9,
			Branches: []Branch{
				{
					ID:          "diplomacy",
					Description: "Broker a truce between the gangs",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "persuasion", Threshold: 12},
						{Kind: ReqReputation, Target: "prisoners", Threshold: 20},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"gang_tensions": worldstate.Float(0.2),
						},
						Relationships: map[string]int{"rats_gang": 20, "hammers_gang": 20},
					},
				},
				{
					ID:          "fuel_conflict",
					Description: "Feed both sides information and profit",
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.violence_level": worldstate.Int(8),
						},
						Relationships: map[string]int{"guards": -20},
					},
				},
			},
		},
		{
			QuestID: "disease_outbreak",
			Name:    "Plague Between Walls",
			Kind:    KindDisease,
			ActivationConditions: map[string]worldstate.Condition{
				"prison.sanitation":     lt(0.3),
				"prison.infected_count": gt(2),
			},
			DiscoveryMethods: []DiscoveryMethod{DiscoveryWitnessed, DiscoveryEnvironmental},
			InitialClues: map[string]string{
				"cells":     "coughing that doesn't stop",
				"infirmary": "cots are filling up",
			},
			TimeSensitive: true,
			ExpiryHours:   72,
			Priority:      9,
			Branches: []Branch{
				{
					ID:          "sacrifice",
					Description: "Nurse the sick yourself, whatever it costs",
					Requirements: []Requirement{
						{Kind: ReqSkill, Target: "first_aid", Threshold: 8},
					},
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.disease_cured": worldstate.Bool(true),
						},
						Relationships: map[string]int{"prisoners": 30},
					},
				},
				{
					ID:          "quarantine_force",
					Description: "Seal the sick wing and let it burn out",
					Consequences: BranchConsequences{
						WorldState: map[string]worldstate.Value{
							"prison.quarantine_active": worldstate.Bool(true),
						},
						Relationships: map[string]int{"prisoners": -20, "guards": 10},
					},
				},
			},
		},
	}
}
