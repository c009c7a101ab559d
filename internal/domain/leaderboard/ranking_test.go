package leaderboard

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livestage/livestage/internal/domain/participant"
)

func player(name string, score int64) *participant.Participant {
	return &participant.Participant{ParticipantID: uuid.New(), DisplayName: name, Score: score}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	a, b, c := player("A", 50), player("B", 50), player("C", 30)
	e := NewEngine()

	r := e.Rank([]*participant.Participant{a, b, c})

	require.Len(t, r.Entries, 3)
	assert.Equal(t, a.ParticipantID, r.Entries[0].ParticipantID)
	assert.Equal(t, b.ParticipantID, r.Entries[1].ParticipantID)
	assert.Equal(t, c.ParticipantID, r.Entries[2].ParticipantID)
	for i, entry := range r.Entries {
		assert.Equal(t, i+1, entry.Rank)
		assert.Nil(t, entry.Delta)
	}
	assert.False(t, r.LeaderChanged)
}

func TestRank_LeaderChange(t *testing.T) {
	a, b := player("A", 100), player("B", 80)
	e := NewEngine()
	e.Rank([]*participant.Participant{a, b})

	b.Score = 120
	r := e.Rank([]*participant.Participant{a, b})

	require.True(t, r.LeaderChanged)
	assert.Equal(t, b.ParticipantID, r.Leader().ParticipantID)
	require.NotNil(t, r.Entries[0].Delta)
	assert.Equal(t, 1, *r.Entries[0].Delta)
	require.NotNil(t, r.Entries[1].Delta)
	assert.Equal(t, -1, *r.Entries[1].Delta)
}

func TestRank_OvertakeThenTie(t *testing.T) {
	c, a, b := player("C", 0), player("A", 100), player("B", 0)
	e := NewEngine()
	e.Rank([]*participant.Participant{c, a, b})

	b.Score = 110
	r := e.Rank([]*participant.Participant{c, a, b})
	require.True(t, r.LeaderChanged)
	assert.Equal(t, b.ParticipantID, r.Leader().ParticipantID)

	// C joined first, so at 110 it sorts ahead of B but has not beaten 110
	c.Score = 110
	r = e.Rank([]*participant.Participant{c, a, b})
	assert.Equal(t, c.ParticipantID, r.Leader().ParticipantID)
	assert.False(t, r.LeaderChanged)
}

func TestRank_TieAtTopIsNotLeaderChange(t *testing.T) {
	a, b := player("A", 100), player("B", 80)
	e := NewEngine()
	e.Rank([]*participant.Participant{b, a})

	// B catches up without overtaking; input order puts B first
	b.Score = 100
	r := e.Rank([]*participant.Participant{b, a})

	assert.Equal(t, b.ParticipantID, r.Leader().ParticipantID)
	assert.False(t, r.LeaderChanged)
}

func TestRank_Idempotent(t *testing.T) {
	players := []*participant.Participant{player("A", 10), player("B", 40), player("C", 20)}
	e := NewEngine()
	first := e.Rank(players)
	second := e.Rank(players)

	require.Len(t, second.Entries, len(first.Entries))
	for i := range second.Entries {
		assert.Equal(t, first.Entries[i].ParticipantID, second.Entries[i].ParticipantID)
		assert.Equal(t, first.Entries[i].Rank, second.Entries[i].Rank)
		require.NotNil(t, second.Entries[i].Delta)
		assert.Zero(t, *second.Entries[i].Delta)
	}
	assert.False(t, second.LeaderChanged)
}

func TestRank_NewParticipantHasNoDelta(t *testing.T) {
	a := player("A", 10)
	e := NewEngine()
	e.Rank([]*participant.Participant{a})

	late := player("Late", 5)
	r := e.Rank([]*participant.Participant{a, late})

	require.NotNil(t, r.Entries[0].Delta)
	assert.Nil(t, r.Entries[1].Delta)
}

func TestRank_Empty(t *testing.T) {
	e := NewEngine()
	r := e.Rank(nil)
	assert.Empty(t, r.Entries)
	assert.Nil(t, r.Leader())
	assert.False(t, r.LeaderChanged)
}

func TestReset(t *testing.T) {
	a, b := player("A", 100), player("B", 80)
	e := NewEngine()
	e.Rank([]*participant.Participant{a, b})
	e.Reset()
	assert.Nil(t, e.Last())

	b.Score = 200
	r := e.Rank([]*participant.Participant{a, b})
	assert.False(t, r.LeaderChanged)
	assert.Nil(t, r.Entries[0].Delta)
}

func TestRank_Concurrent(t *testing.T) {
	players := []*participant.Participant{player("A", 3), player("B", 2), player("C", 1)}
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Rank(players)
		}()
	}
	wg.Wait()

	last := e.Last()
	require.NotNil(t, last)
	assert.Equal(t, "A", last.Entries[0].DisplayName)
}
