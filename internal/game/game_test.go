package game_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeAndHammer/blackbox/internal/game"
	"github.com/CodeAndHammer/blackbox/internal/levels"
	"github.com/CodeAndHammer/blackbox/internal/models"
)

var answers = map[int]string{
	1: "welcome to 118csie in nuk!",
	2: "startwithhelloworld",
	3: "madeintaiwan",
}

func newController(t *testing.T) *game.Controller {
	t.Helper()
	c, err := game.NewController(levels.MustDefault())
	require.NoError(t, err)
	return c
}

func stateOn(page models.Page) models.SessionState {
	s := models.NewSessionState()
	s.Page = page
	return s
}

func TestNewControllerRejectsWrongCatalog(t *testing.T) {
	_, err := game.NewController(nil)
	require.Error(t, err)

	small, err := levels.Parse([]byte("levels:\n  - {number: 1, cipher: {kind: reverse}, samples: [a], question: a}\n"))
	require.NoError(t, err)
	_, err = game.NewController(small)
	require.Error(t, err)
}

func TestBeginFromStart(t *testing.T) {
	c := newController(t)
	start := models.NewSessionState()

	got, outcome, err := c.Dispatch(start, game.Begin())
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeNone, outcome)

	want := start
	want.Page = models.PageLevel1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state after begin (-want +got):\n%s", diff)
	}
}

func TestSubmitCorrectAnswerCountsOnce(t *testing.T) {
	c := newController(t)
	s := stateOn(models.PageLevel1)

	s, outcome, err := c.Dispatch(s, game.Submit(answers[1]))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeCorrect, outcome)
	assert.Equal(t, 1, s.Score)
	assert.True(t, s.LevelPassed(1))
	assert.Equal(t, models.PageLevel1, s.Page)

	s, outcome, err = c.Dispatch(s, game.Submit(answers[1]))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeAlreadyPassed, outcome)
	assert.Equal(t, 1, s.Score)

	// Already passed wins even over a wrong answer.
	s, outcome, err = c.Dispatch(s, game.Submit("nonsense"))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeAlreadyPassed, outcome)
	assert.Equal(t, 1, s.Score)
	assert.True(t, s.Consistent())
}

func TestSubmitComparison(t *testing.T) {
	c := newController(t)

	cases := []struct {
		name   string
		page   models.Page
		answer string
		want   game.Outcome
	}{
		{"exact", models.PageLevel2, "startwithhelloworld", game.OutcomeCorrect},
		{"surrounding whitespace trimmed", models.PageLevel2, "  startwithhelloworld\n", game.OutcomeCorrect},
		{"case sensitive", models.PageLevel2, "StartWithHelloWorld", game.OutcomeIncorrect},
		{"inner whitespace kept", models.PageLevel2, "start with hello world", game.OutcomeIncorrect},
		{"empty", models.PageLevel3, "", game.OutcomeIncorrect},
		{"ciphertext itself", models.PageLevel3, "pcykcvpkgfco", game.OutcomeIncorrect},
		{"level 3", models.PageLevel3, "madeintaiwan", game.OutcomeCorrect},
		{"punctuation matters", models.PageLevel1, "welcome to 118csie in nuk", game.OutcomeIncorrect},
		{"level 1", models.PageLevel1, "welcome to 118csie in nuk!", game.OutcomeCorrect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := stateOn(tc.page)
			after, outcome, err := c.Dispatch(before, game.Submit(tc.answer))
			require.NoError(t, err)
			assert.Equal(t, tc.want, outcome)
			if tc.want == game.OutcomeIncorrect {
				assert.Equal(t, before, after)
			} else {
				assert.Equal(t, 1, after.Score)
			}
		})
	}
}

func TestIncorrectAnswersNeverLockOut(t *testing.T) {
	c := newController(t)
	s := stateOn(models.PageLevel3)
	for range 50 {
		var outcome game.Outcome
		var err error
		s, outcome, err = c.Dispatch(s, game.Submit("wrong"))
		require.NoError(t, err)
		require.Equal(t, game.OutcomeIncorrect, outcome)
	}
	_, outcome, err := c.Dispatch(s, game.Submit(answers[3]))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeCorrect, outcome)
}

func TestNavigationTable(t *testing.T) {
	c := newController(t)

	cases := []struct {
		from   models.Page
		action game.Action
		to     models.Page
	}{
		{models.PageLevel1, game.Next(), models.PageLevel2},
		{models.PageLevel2, game.Next(), models.PageLevel3},
		{models.PageLevel2, game.Prev(), models.PageLevel1},
		{models.PageLevel3, game.Prev(), models.PageLevel2},
		{models.PageLevel1, game.GoHome(), models.PageStart},
		{models.PageLevel3, game.GoHome(), models.PageStart},
		{models.PageLevel2, game.GoEnd(), models.PageEnd},
		{models.PageEnd, game.GoHome(), models.PageStart},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.action.Kind), func(t *testing.T) {
			s := stateOn(tc.from)
			_, err := s.MarkPassed(1)
			require.NoError(t, err)

			got, outcome, err := c.Dispatch(s, tc.action)
			require.NoError(t, err)
			assert.Equal(t, game.OutcomeNone, outcome)
			assert.Equal(t, tc.to, got.Page)
			assert.Equal(t, s.Passed, got.Passed)
			assert.Equal(t, s.Score, got.Score)
		})
	}
}

func TestRejectedActionsLeaveStateUnchanged(t *testing.T) {
	c := newController(t)

	cases := []struct {
		from   models.Page
		action game.Action
	}{
		{models.PageLevel1, game.Prev()},
		{models.PageLevel3, game.Next()},
		{models.PageLevel2, game.Restart()},
		{models.PageLevel1, game.Begin()},
		{models.PageStart, game.Next()},
		{models.PageStart, game.Submit(answers[1])},
		{models.PageStart, game.Restart()},
		{models.PageStart, game.GoEnd()},
		{models.PageEnd, game.Submit(answers[1])},
		{models.PageEnd, game.Begin()},
		{models.PageEnd, game.Prev()},
		{models.PageLevel1, game.Action{Kind: "dance"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.action.Kind), func(t *testing.T) {
			s := stateOn(tc.from)
			_, err := s.MarkPassed(2)
			require.NoError(t, err)

			got, outcome, err := c.Dispatch(s, tc.action)
			require.ErrorIs(t, err, game.ErrActionNotAllowed)
			assert.Equal(t, game.OutcomeNone, outcome)
			if diff := cmp.Diff(s, got); diff != "" {
				t.Errorf("state changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJumpTo(t *testing.T) {
	c := newController(t)
	for _, from := range models.Pages {
		for _, to := range models.Pages {
			got, _, err := c.Dispatch(stateOn(from), game.JumpTo(to))
			require.NoError(t, err)
			assert.Equal(t, to, got.Page)
		}
	}

	s := stateOn(models.PageLevel2)
	got, outcome, err := c.Dispatch(s, game.JumpTo("summary"))
	require.ErrorIs(t, err, game.ErrInvalidPage)
	assert.Equal(t, game.OutcomeNone, outcome)
	assert.Equal(t, s, got)
}

func TestRestartFromEnd(t *testing.T) {
	c := newController(t)
	s := models.NewSessionState()

	var err error
	s, _, err = c.Dispatch(s, game.Begin())
	require.NoError(t, err)
	for n := 1; n <= 3; n++ {
		s, _, err = c.Dispatch(s, game.Submit(answers[n]))
		require.NoError(t, err)
		if n < 3 {
			s, _, err = c.Dispatch(s, game.Next())
			require.NoError(t, err)
		}
	}
	require.Equal(t, 3, s.Score)

	s, _, err = c.Dispatch(s, game.GoEnd())
	require.NoError(t, err)
	s, _, err = c.Dispatch(s, game.Restart())
	require.NoError(t, err)
	if diff := cmp.Diff(models.NewSessionState(), s); diff != "" {
		t.Errorf("state after restart (-want +got):\n%s", diff)
	}
}

func TestDispatchRejectsCorruptPage(t *testing.T) {
	c := newController(t)
	s := models.SessionState{Page: "level_7"}
	_, _, err := c.Dispatch(s, game.Next())
	require.ErrorIs(t, err, game.ErrInvalidPage)
}

func TestDispatchDoesNotMutateInput(t *testing.T) {
	c := newController(t)
	s := stateOn(models.PageLevel1)
	_, _, err := c.Dispatch(s, game.Submit(answers[1]))
	require.NoError(t, err)
	assert.False(t, s.LevelPassed(1))
	assert.Zero(t, s.Score)
}
