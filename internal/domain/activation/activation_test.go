package activation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func pollContent() Content {
	return Content{
		Question: "Best snack?",
		Options:  []Option{{ID: "a", Text: "Popcorn"}, {ID: "b", Text: "Nachos"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       *Activation
		wantErr bool
	}{
		{name: "poll ok", a: &Activation{Kind: KindPoll, Content: pollContent()}},
		{name: "poll with one option", a: &Activation{Kind: KindPoll, Content: Content{Options: []Option{{ID: "a", Text: "x"}}}}, wantErr: true},
		{name: "poll with duplicate ids", a: &Activation{Kind: KindPoll, Content: Content{Options: []Option{{ID: "a"}, {ID: "a"}}}}, wantErr: true},
		{name: "poll with blank id", a: &Activation{Kind: KindPoll, Content: Content{Options: []Option{{ID: "a"}, {ID: " "}}}}, wantErr: true},
		{name: "multiple choice without correct answer", a: &Activation{Kind: KindMultipleChoice, Content: pollContent()}, wantErr: true},
		{
			name: "multiple choice with unknown correct answer",
			a: &Activation{Kind: KindMultipleChoice, Content: func() Content {
				c := pollContent()
				c.CorrectOptionID = strPtr("z")
				return c
			}()},
			wantErr: true,
		},
		{
			name: "multiple choice ok",
			a: &Activation{Kind: KindMultipleChoice, Content: func() Content {
				c := pollContent()
				c.CorrectOptionID = strPtr("b")
				return c
			}()},
		},
		{name: "text answer without answer", a: &Activation{Kind: KindTextAnswer, Content: Content{Question: "Capital of France?"}}, wantErr: true},
		{name: "text answer ok", a: &Activation{Kind: KindTextAnswer, Content: Content{ExactAnswer: strPtr("Paris")}}},
		{name: "social wall needs nothing", a: &Activation{Kind: KindSocialWall}},
		{name: "negative time limit", a: &Activation{Kind: KindLeaderboard, Content: Content{TimeLimitSeconds: -1}}, wantErr: true},
		{name: "unknown kind", a: &Activation{Kind: "QUIZ"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidContent)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPredecessor(t *testing.T) {
	from, err := Predecessor(PollVoting)
	require.NoError(t, err)
	assert.Equal(t, PollPending, from)

	from, err = Predecessor(PollClosed)
	require.NoError(t, err)
	assert.Equal(t, PollVoting, from)

	_, err = Predecessor(PollPending)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCanTransitionTo(t *testing.T) {
	a := &Activation{Kind: KindPoll, PollState: PollPending}
	assert.True(t, a.CanTransitionTo(PollVoting))
	assert.False(t, a.CanTransitionTo(PollClosed))

	a.PollState = PollVoting
	assert.True(t, a.CanTransitionTo(PollClosed))
	assert.False(t, a.CanTransitionTo(PollVoting))

	a.PollState = PollClosed
	assert.False(t, a.CanTransitionTo(PollVoting))
	assert.False(t, a.CanTransitionTo(PollPending))

	quiz := &Activation{Kind: KindMultipleChoice}
	assert.False(t, quiz.CanTransitionTo(PollVoting))
}

func TestLaunchCopy(t *testing.T) {
	roomID := uuid.New()
	tpl := NewTemplate(roomID, KindPoll, pollContent())
	require.True(t, tpl.IsTemplate)

	live := tpl.LaunchCopy(roomID, "host")

	assert.NotEqual(t, tpl.ActivationID, live.ActivationID)
	require.NotNil(t, live.TemplateID)
	assert.Equal(t, tpl.ActivationID, *live.TemplateID)
	assert.False(t, live.IsTemplate)
	assert.True(t, live.Active)
	assert.Equal(t, PollPending, live.PollState)
	require.Len(t, live.History, 1)
	assert.Equal(t, HistoryLaunched, live.History[0].Action)
	assert.Equal(t, "host", live.History[0].Actor)

	// the copy must not share option storage with the template
	live.Content.Options[0].Text = "Changed"
	assert.Equal(t, "Popcorn", tpl.Content.Options[0].Text)
}

func TestAcceptsVotes(t *testing.T) {
	a := &Activation{Kind: KindPoll, PollState: PollPending}
	assert.False(t, a.AcceptsVotes())
	a.PollState = PollVoting
	assert.True(t, a.AcceptsVotes())
	a.PollState = PollClosed
	assert.False(t, a.AcceptsVotes())
}

func TestOptionByText(t *testing.T) {
	c := pollContent()
	o := c.OptionByText("  nachos ")
	require.NotNil(t, o)
	assert.Equal(t, "b", o.ID)
	assert.Nil(t, c.OptionByText("Pretzels"))
}
