// Package game drives a session through the quiz pages.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CodeAndHammer/blackbox/internal/levels"
	"github.com/CodeAndHammer/blackbox/internal/models"
)

var (
	// ErrActionNotAllowed means the action has no transition from the
	// current page. The state is returned unchanged.
	ErrActionNotAllowed = errors.New("action not allowed")
	ErrInvalidPage      = models.ErrInvalidPage
)

type ActionKind string

const (
	ActionBegin   ActionKind = "begin"
	ActionSubmit  ActionKind = "submit"
	ActionNext    ActionKind = "next"
	ActionPrev    ActionKind = "prev"
	ActionGoHome  ActionKind = "home"
	ActionGoEnd   ActionKind = "end"
	ActionJumpTo  ActionKind = "jump"
	ActionRestart ActionKind = "restart"
)

type Action struct {
	Kind   ActionKind
	Answer string
	Page   models.Page
}

func Begin() Action                  { return Action{Kind: ActionBegin} }
func Submit(answer string) Action    { return Action{Kind: ActionSubmit, Answer: answer} }
func Next() Action                   { return Action{Kind: ActionNext} }
func Prev() Action                   { return Action{Kind: ActionPrev} }
func GoHome() Action                 { return Action{Kind: ActionGoHome} }
func GoEnd() Action                  { return Action{Kind: ActionGoEnd} }
func JumpTo(page models.Page) Action { return Action{Kind: ActionJumpTo, Page: page} }
func Restart() Action                { return Action{Kind: ActionRestart} }

// Outcome tells the presentation layer how an action went.
type Outcome string

const (
	OutcomeNone          Outcome = "none"
	OutcomeAlreadyPassed Outcome = "alreadyPassed"
	OutcomeCorrect       Outcome = "correct"
	OutcomeIncorrect     Outcome = "incorrect"
)

type Controller struct {
	catalog *levels.Catalog
}

func NewController(catalog *levels.Catalog) (*Controller, error) {
	if catalog == nil {
		return nil, errors.New("nil level catalog")
	}
	if catalog.Count() != models.LevelCount {
		return nil, fmt.Errorf("catalog has %d levels, want %d", catalog.Count(), models.LevelCount)
	}
	return &Controller{catalog: catalog}, nil
}

func (c *Controller) Catalog() *levels.Catalog {
	return c.catalog
}

// Dispatch applies one action to state and returns the resulting state.
// On error the input state is returned as is.
func (c *Controller) Dispatch(state models.SessionState, action Action) (models.SessionState, Outcome, error) {
	if !state.Page.Valid() {
		return state, OutcomeNone, fmt.Errorf("current %w: %q", ErrInvalidPage, state.Page)
	}

	if action.Kind == ActionJumpTo {
		if !action.Page.Valid() {
			return state, OutcomeNone, fmt.Errorf("jump: %w: %q", ErrInvalidPage, action.Page)
		}
		state.Page = action.Page
		return state, OutcomeNone, nil
	}

	level, onLevel := state.Page.Level()
	switch {
	case state.Page == models.PageStart:
		return c.fromStart(state, action)
	case state.Page == models.PageEnd:
		return c.fromEnd(state, action)
	case onLevel:
		return c.fromLevel(state, level, action)
	}
	return state, OutcomeNone, notAllowed(state, action)
}

func (c *Controller) fromStart(state models.SessionState, action Action) (models.SessionState, Outcome, error) {
	if action.Kind != ActionBegin {
		return state, OutcomeNone, notAllowed(state, action)
	}
	state.Page = models.PageLevel1
	return state, OutcomeNone, nil
}

func (c *Controller) fromEnd(state models.SessionState, action Action) (models.SessionState, Outcome, error) {
	switch action.Kind {
	case ActionRestart:
		state.Reset()
	case ActionGoHome:
		state.Page = models.PageStart
	default:
		return state, OutcomeNone, notAllowed(state, action)
	}
	return state, OutcomeNone, nil
}

func (c *Controller) fromLevel(state models.SessionState, level int, action Action) (models.SessionState, Outcome, error) {
	switch action.Kind {
	case ActionSubmit:
		return c.submit(state, level, action.Answer)
	case ActionPrev:
		if level <= 1 {
			return state, OutcomeNone, notAllowed(state, action)
		}
		return moveTo(state, level-1)
	case ActionNext:
		if level >= models.LevelCount {
			return state, OutcomeNone, notAllowed(state, action)
		}
		return moveTo(state, level+1)
	case ActionGoHome:
		state.Page = models.PageStart
	case ActionGoEnd:
		state.Page = models.PageEnd
	default:
		return state, OutcomeNone, notAllowed(state, action)
	}
	return state, OutcomeNone, nil
}

func (c *Controller) submit(state models.SessionState, level int, answer string) (models.SessionState, Outcome, error) {
	if state.LevelPassed(level) {
		return state, OutcomeAlreadyPassed, nil
	}
	def, err := c.catalog.Get(level)
	if err != nil {
		return state, OutcomeNone, err
	}
	// Only the user's input is trimmed; the comparison is exact.
	if strings.TrimSpace(answer) != def.CorrectAnswer() {
		return state, OutcomeIncorrect, nil
	}
	if _, err := state.MarkPassed(level); err != nil {
		return state, OutcomeNone, err
	}
	return state, OutcomeCorrect, nil
}

func moveTo(state models.SessionState, level int) (models.SessionState, Outcome, error) {
	page, err := models.LevelPage(level)
	if err != nil {
		return state, OutcomeNone, err
	}
	state.Page = page
	return state, OutcomeNone, nil
}

func notAllowed(state models.SessionState, action Action) error {
	return fmt.Errorf("%w: %s on %s", ErrActionNotAllowed, action.Kind, state.Page)
}
