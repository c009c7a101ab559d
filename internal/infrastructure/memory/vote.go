package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/vote"
)

// VoteRepository implements vote.Repository.
type VoteRepository struct {
	s *Store
}

func (r *VoteRepository) Insert(ctx context.Context, v *vote.Vote) (vote.Outcome, *vote.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := pairKey{activationID: v.ActivationID, participantID: v.ParticipantID}
	if existing, ok := r.s.votes[key]; ok {
		return vote.OutcomeDuplicate, cloneVote(existing), nil
	}
	a, ok := r.s.activations[v.ActivationID]
	if !ok {
		return vote.OutcomeActivationMissing, nil, nil
	}
	if !a.AcceptsVotes() {
		return vote.OutcomeOutOfWindow, nil, nil
	}
	v.ID = r.s.id()
	r.s.votes[key] = cloneVote(v)
	return vote.OutcomeInserted, cloneVote(v), nil
}

func (r *VoteRepository) Replay(ctx context.Context, v *vote.Vote) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := pairKey{activationID: v.ActivationID, participantID: v.ParticipantID}
	if _, ok := r.s.votes[key]; ok {
		return false, nil
	}
	if _, ok := r.s.activations[v.ActivationID]; !ok {
		return false, errMissingActivation
	}
	v.ID = r.s.id()
	r.s.votes[key] = cloneVote(v)
	return true, nil
}

func (r *VoteRepository) ListByActivation(ctx context.Context, activationID uuid.UUID) ([]*vote.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*vote.Vote
	for key, v := range r.s.votes {
		if key.activationID == activationID {
			out = append(out, cloneVote(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *VoteRepository) CreateFailure(ctx context.Context, f *vote.WriteFailure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.failures[f.FailureID]; exists {
		return errDuplicateKey
	}
	f.ID = r.s.id()
	r.s.failures[f.FailureID] = cloneFailure(f)
	return nil
}

func (r *VoteRepository) ClaimRetryable(ctx context.Context, maxRetries, limit int, now time.Time, lease time.Duration) ([]*vote.WriteFailure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := now.Add(-lease)
	var candidates []*vote.WriteFailure
	for _, f := range r.s.failures {
		if f.RetryCount >= maxRetries {
			continue
		}
		if f.LastRetryAt != nil && f.LastRetryAt.After(cutoff) {
			continue
		}
		candidates = append(candidates, f)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RetryCount != candidates[j].RetryCount {
			return candidates[i].RetryCount < candidates[j].RetryCount
		}
		return candidates[i].ID < candidates[j].ID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*vote.WriteFailure, 0, len(candidates))
	for _, f := range candidates {
		f.RetryCount++
		t := now
		f.LastRetryAt = &t
		out = append(out, cloneFailure(f))
	}
	return out, nil
}

func (r *VoteRepository) RecordFailureError(ctx context.Context, failureID uuid.UUID, msg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.failures[failureID]
	if !ok {
		return vote.ErrNotFound
	}
	f.Error = msg
	return nil
}

func (r *VoteRepository) DeleteFailure(ctx context.Context, failureID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.failures, failureID)
	return nil
}

func (r *VoteRepository) ListFailures(ctx context.Context, exhaustedOnly bool, limit int) ([]*vote.WriteFailure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*vote.WriteFailure
	for _, f := range r.s.failures {
		if exhaustedOnly && !f.Exhausted() {
			continue
		}
		out = append(out, cloneFailure(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
