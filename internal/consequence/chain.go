package consequence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/worldstate"
)

// Chain is a strict sequence of consequences: each link fires only after the
// previous one applied and its own trigger holds.
type Chain struct {
	ID        string
	links     []*Consequence
	nextIndex int
	Completed bool
}

// CreateChain registers the consequences and groups them into a chain. Links
// keep their own trigger conditions and trigger times; no link's trigger time
// is derived from when the previous link applied.
func (s *Scheduler) CreateChain(chainID string, links []*Consequence) (*Chain, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("chain %q must have at least one consequence", chainID)
	}
	for _, c := range links {
		if c.ID == "" {
			c.ID = NewID()
		}
		// Chain links fire through the chain walk, not the schedule.
		s.consequences[c.ID] = c
	}
	chain := &Chain{ID: chainID, links: links}
	s.chains[chainID] = chain
	return chain, nil
}

// ProcessChains advances every incomplete chain whose next link can trigger
// now. Each walk applies at most one link per chain per call.
func (s *Scheduler) ProcessChains(now time.Time, world *worldstate.Store, pl *player.Player, registry *npcs.Registry) []Result {
	var results []Result
	for _, chain := range s.chains {
		if chain.Completed || chain.nextIndex >= len(chain.links) {
			chain.Completed = true
			continue
		}
		next := chain.links[chain.nextIndex]
		if !next.CanTrigger(world, now) {
			continue
		}
		results = append(results, s.apply(next, now, world, pl, registry))
		chain.nextIndex++
		if chain.nextIndex >= len(chain.links) {
			chain.Completed = true
		}
	}
	return results
}

// Web is a graph of consequences where firing one node unlocks its edges.
type Web struct {
	ID        string
	nodes     map[string]*Consequence
	edges     map[string][]string
	triggered map[string]struct{}
}

// CreateWeb registers an empty consequence web and returns its handle.
func (s *Scheduler) CreateWeb(webID string) *Web {
	if webID == "" {
		webID = uuid.NewString()
	}
	web := &Web{
		ID:        webID,
		nodes:     make(map[string]*Consequence),
		edges:     make(map[string][]string),
		triggered: make(map[string]struct{}),
	}
	s.webs[webID] = web
	return web
}

// AddNode registers a consequence as a web node.
func (w *Web) AddNode(c *Consequence) {
	if c.ID == "" {
		c.ID = NewID()
	}
	w.nodes[c.ID] = c
}

// AddEdge connects two nodes: firing from unlocks to.
func (w *Web) AddEdge(from, to string) {
	w.edges[from] = append(w.edges[from], to)
}

// TriggerWebNode fires a node, applies it, and returns the ids of connected nodes
// that can now fire. Already-triggered nodes are skipped.
func (s *Scheduler) TriggerWebNode(webID, nodeID string, now time.Time, world *worldstate.Store, pl *player.Player, registry *npcs.Registry) ([]string, error) {
	web, ok := s.webs[webID]
	if !ok {
		return nil, fmt.Errorf("unknown web %q", webID)
	}
	node, ok := web.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("unknown node %q in web %q", nodeID, webID)
	}
	if _, done := web.triggered[nodeID]; done {
		return nil, nil
	}

	res := Result{ID: node.ID, SourceQuest: node.SourceQuest, Kind: node.Kind,
		Severity: node.Severity, Changes: make(map[string]any)}
	for _, eff := range node.Effects {
		for k, v := range applyEffect(eff, world, pl, registry, false) {
			res.Changes[k] = v
		}
		s.accountKarma(eff)
	}
	node.Triggered = true
	web.triggered[nodeID] = struct{}{}
	s.history = append(s.history, Record{Time: now, ID: node.ID, SourceQuest: node.SourceQuest})

	var unlocked []string
	for _, next := range web.edges[nodeID] {
		if _, done := web.triggered[next]; done {
			continue
		}
		if conn, ok := web.nodes[next]; ok && conn.CanTrigger(world, now) {
			unlocked = append(unlocked, next)
		}
	}
	return unlocked, nil
}

type chainBlob struct {
	ID        string        `json:"id"`
	LinkIDs   []string      `json:"link_ids"`
	NextIndex int           `json:"next_index"`
	Completed bool          `json:"completed"`
	Links     []Consequence `json:"links"`
}

func (c *Chain) toBlob() chainBlob {
	blob := chainBlob{ID: c.ID, NextIndex: c.nextIndex, Completed: c.Completed}
	for _, link := range c.links {
		blob.LinkIDs = append(blob.LinkIDs, link.ID)
		blob.Links = append(blob.Links, *link)
	}
	return blob
}

func chainFromBlob(blob chainBlob, s *Scheduler) *Chain {
	chain := &Chain{ID: blob.ID, nextIndex: blob.NextIndex, Completed: blob.Completed}
	for i := range blob.Links {
		link := blob.Links[i]
		s.consequences[link.ID] = &link
		chain.links = append(chain.links, &link)
	}
	return chain
}
