package leaderboard

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/participant"
)

// Ranked is one row of a ranking.
type Ranked struct {
	ParticipantID uuid.UUID `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	Score         int64     `json:"score"`
	Rank          int       `json:"rank"`
	// Delta is previousRank - rank; positive means moved up. Nil on the first
	// ranking that includes the participant.
	Delta *int `json:"delta,omitempty"`
}

// Ranking is the output of one Rank call.
type Ranking struct {
	Entries []Ranked `json:"entries"`
	// LeaderChanged is set when rank 1 changed hands to a strictly higher score.
	LeaderChanged bool `json:"leaderChanged"`
}

// Leader returns the rank 1 entry, or nil for an empty ranking.
func (r *Ranking) Leader() *Ranked {
	if len(r.Entries) == 0 {
		return nil
	}
	return &r.Entries[0]
}

// Engine ranks participants and remembers the previous ranking so it can
// report rank deltas and leader changes. It is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	previous    map[uuid.UUID]int
	leaderID    uuid.UUID
	leaderScore int64
	hasLeader   bool
	last        *Ranking
}

func NewEngine() *Engine {
	return &Engine{previous: make(map[uuid.UUID]int)}
}

// Rank sorts by score descending, keeping input order among ties, and assigns
// positional ranks 1..n.
func (e *Engine) Rank(participants []*participant.Participant) *Ranking {
	sorted := make([]*participant.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	out := &Ranking{Entries: make([]Ranked, 0, len(sorted))}
	current := make(map[uuid.UUID]int, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		entry := Ranked{
			ParticipantID: p.ParticipantID,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
			Rank:          rank,
		}
		if prev, ok := e.previous[p.ParticipantID]; ok {
			d := prev - rank
			entry.Delta = &d
		}
		current[p.ParticipantID] = rank
		out.Entries = append(out.Entries, entry)
	}

	if leader := out.Leader(); leader != nil {
		if e.hasLeader && leader.ParticipantID != e.leaderID && leader.Score > e.leaderScore {
			out.LeaderChanged = true
		}
		e.leaderID = leader.ParticipantID
		e.leaderScore = leader.Score
		e.hasLeader = true
	} else {
		e.hasLeader = false
	}

	e.previous = current
	e.last = out
	return out
}

// Last returns the most recent ranking, or nil if Rank was never called.
func (e *Engine) Last() *Ranking {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Reset forgets all previous ranks and the leader.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.previous = make(map[uuid.UUID]int)
	e.hasLeader = false
	e.leaderID = uuid.Nil
	e.leaderScore = 0
	e.last = nil
}
