package game

import (
	"github.com/samber/lo"

	"github.com/CodeAndHammer/blackbox/internal/levels"
	"github.com/CodeAndHammer/blackbox/internal/models"
)

// LevelView is what a level page shows.
type LevelView struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Samples     []levels.Sample `json:"samples"`
	Question    string          `json:"question"`
	Passed      bool            `json:"passed"`
	Answer      string          `json:"answer,omitempty"`
	HasPrev     bool            `json:"hasPrev"`
	HasNext     bool            `json:"hasNext"`
	Score       int             `json:"score"`
	Total       int             `json:"total"`
}

// LevelStatus is one row of the end page.
type LevelStatus struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Passed bool   `json:"passed"`
}

// EndView is what the end page shows.
type EndView struct {
	Score     int           `json:"score"`
	Total     int           `json:"total"`
	AllPassed bool          `json:"allPassed"`
	Levels    []LevelStatus `json:"levels"`
}

// NavLink is an entry of the quick navigation sidebar.
type NavLink struct {
	Page    models.Page `json:"page"`
	Label   string      `json:"label"`
	Current bool        `json:"current"`
}

// SummaryView backs the sidebar and the session debug dump.
type SummaryView struct {
	Page   models.Page   `json:"currentPage"`
	Score  int           `json:"score"`
	Total  int           `json:"total"`
	Levels []LevelStatus `json:"levels"`
	Links  []NavLink     `json:"links"`
}

// LevelView builds the level page for level n. The answer is only
// revealed once the level is passed.
func (c *Controller) LevelView(state models.SessionState, n int) (LevelView, error) {
	def, err := c.catalog.Get(n)
	if err != nil {
		return LevelView{}, err
	}
	v := LevelView{
		Number:      def.Number,
		Title:       def.Title,
		Description: def.Description,
		Samples:     def.Samples(),
		Question:    def.Question,
		Passed:      state.LevelPassed(n),
		HasPrev:     n > 1,
		HasNext:     n < c.catalog.Count(),
		Score:       state.Score,
		Total:       c.catalog.Count(),
	}
	if v.Passed {
		v.Answer = def.CorrectAnswer()
	}
	return v, nil
}

func (c *Controller) EndView(state models.SessionState) EndView {
	total := c.catalog.Count()
	return EndView{
		Score:     state.Score,
		Total:     total,
		AllPassed: state.Score == total,
		Levels:    c.levelStatuses(state),
	}
}

func (c *Controller) SummaryView(state models.SessionState) SummaryView {
	links := lo.Map(models.Pages, func(p models.Page, _ int) NavLink {
		return NavLink{Page: p, Label: c.pageLabel(p), Current: p == state.Page}
	})
	return SummaryView{
		Page:   state.Page,
		Score:  state.Score,
		Total:  c.catalog.Count(),
		Levels: c.levelStatuses(state),
		Links:  links,
	}
}

func (c *Controller) levelStatuses(state models.SessionState) []LevelStatus {
	return lo.Map(c.catalog.All(), func(d levels.Definition, _ int) LevelStatus {
		return LevelStatus{Number: d.Number, Title: d.Title, Passed: state.LevelPassed(d.Number)}
	})
}

func (c *Controller) pageLabel(p models.Page) string {
	if n, ok := p.Level(); ok {
		return c.catalog.MustGet(n).Title
	}
	switch p {
	case models.PageStart:
		return "開始頁面"
	case models.PageEnd:
		return "結果頁面"
	}
	return string(p)
}
