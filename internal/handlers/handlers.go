package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/blackbox/internal/constants"
	game "github.com/CodeAndHammer/blackbox/internal/game"
	levels "github.com/CodeAndHammer/blackbox/internal/levels"
	models "github.com/CodeAndHammer/blackbox/internal/models"
	session "github.com/CodeAndHammer/blackbox/internal/session"
	util "github.com/CodeAndHammer/blackbox/internal/util"
)

const pageTitle = "Black Box Decoder"

type Handlers struct {
	App  *models.App
	Game *game.Controller
}

func New(app *models.App, controller *game.Controller) *Handlers {
	return &Handlers{App: app, Game: controller}
}

// Register mounts all routes. The mutating middlewares run in front of
// every POST route.
func (h *Handlers) Register(r gin.IRoutes, mutating ...gin.HandlerFunc) {
	post := func(path string, handler gin.HandlerFunc) {
		r.POST(path, append(append([]gin.HandlerFunc{}, mutating...), handler)...)
	}

	r.GET(constants.RouteHome, h.HomeHandler)
	r.GET(constants.RouteState, h.StateHandler)
	r.GET(constants.RouteHealthz, h.HealthzHandler)

	post(constants.RouteBegin, h.actionHandler(func(*gin.Context) game.Action { return game.Begin() }))
	post(constants.RouteAnswer, h.actionHandler(func(c *gin.Context) game.Action { return game.Submit(c.PostForm("answer")) }))
	post(constants.RouteNext, h.actionHandler(func(*gin.Context) game.Action { return game.Next() }))
	post(constants.RoutePrev, h.actionHandler(func(*gin.Context) game.Action { return game.Prev() }))
	post(constants.RouteGoHome, h.actionHandler(func(*gin.Context) game.Action { return game.GoHome() }))
	post(constants.RouteGoEnd, h.actionHandler(func(*gin.Context) game.Action { return game.GoEnd() }))
	post(constants.RouteRestart, h.actionHandler(func(*gin.Context) game.Action { return game.Restart() }))
	post(constants.RouteJump, h.actionHandler(func(c *gin.Context) game.Action {
		return game.JumpTo(models.Page(strings.TrimSpace(c.PostForm("page"))))
	}))
}

func (h *Handlers) HomeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := session.GetOrCreateSession(h.App, c)
	state := session.GetSessionState(h.App, ctx, sessionID)

	if isHTMX(c) {
		h.render(c, constants.TemplateContent, state, game.OutcomeNone, "")
		return
	}
	h.render(c, constants.TemplateIndex, state, game.OutcomeNone, "")
}

func (h *Handlers) actionHandler(build func(*gin.Context) game.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.dispatch(c, build(c))
	}
}

func (h *Handlers) dispatch(c *gin.Context, action game.Action) {
	ctx := c.Request.Context()
	prefix := util.LogPrefix(ctx)
	sessionID := session.GetOrCreateSession(h.App, c)
	state := session.GetSessionState(h.App, ctx, sessionID)

	next, outcome, err := h.Game.Dispatch(state, action)
	var errCode string
	if err != nil {
		errCode = errorCode(err)
		if errCode == constants.ErrorCodeUnknownLevel || errCode == constants.ErrorCodeInternal {
			util.LogError("%sSession %s: %s failed on %s: %v", prefix, sessionID, action.Kind, state.Page, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errCode})
			return
		}
		util.LogWarn("%sSession %s: rejected %s on %s: %v", prefix, sessionID, action.Kind, state.Page, err)
	} else {
		if action.Kind == game.ActionRestart {
			// A reset state is identical to a fresh one.
			session.DeleteSession(h.App, sessionID)
		} else {
			session.SaveSessionState(h.App, sessionID, next)
		}
		if next.Page != state.Page {
			util.LogInfo("%sSession %s: %s -> %s", prefix, sessionID, state.Page, next.Page)
		}
		if outcome != game.OutcomeNone {
			util.LogInfo("%sSession %s: answer on %s was %s (score %d)", prefix, sessionID, state.Page, outcome, next.Score)
		}
		state = next
	}

	setTrigger(c, outcome, errCode)

	switch {
	case isHTMX(c):
		h.render(c, constants.TemplateContent, state, outcome, errCode)
	case outcome != game.OutcomeNone || errCode != "":
		h.render(c, constants.TemplateIndex, state, outcome, errCode)
	default:
		c.Redirect(http.StatusSeeOther, constants.RouteHome)
	}
}

func (h *Handlers) StateHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := session.GetOrCreateSession(h.App, c)
	state := session.GetSessionState(h.App, ctx, sessionID)
	c.JSON(http.StatusOK, gin.H{
		"state":   state,
		"summary": h.Game.SummaryView(state),
	})
}

func (h *Handlers) HealthzHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.App.StartTime)
	sessionCount := session.SessionCount(h.App)

	h.App.LimiterMutex.RLock()
	limiterCount := len(h.App.LimiterMap)
	h.App.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[h.App.IsProduction],
		"levels_loaded":   h.Game.Catalog().Count(),
		"active_sessions": sessionCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) render(c *gin.Context, name string, state models.SessionState, outcome game.Outcome, errCode string) {
	data, err := h.pageData(state)
	if err != nil {
		util.LogError("%sFailed to build page %s: %v", util.LogPrefix(c.Request.Context()), state.Page, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorCode(err)})
		return
	}
	// Partial responses carry the sidebar as an out-of-band swap.
	data["oob"] = name == constants.TemplateContent
	data["title"] = pageTitle
	data["outcome"] = string(outcome)
	data["error_code"] = errCode
	data["csrf_token"] = c.GetString(constants.CSRFContextKey)
	c.HTML(http.StatusOK, name, data)
}

func (h *Handlers) pageData(state models.SessionState) (gin.H, error) {
	data := gin.H{
		"page":    string(state.Page),
		"state":   state,
		"summary": h.Game.SummaryView(state),
	}
	switch n, ok := state.Page.Level(); {
	case ok:
		view, err := h.Game.LevelView(state, n)
		if err != nil {
			return nil, err
		}
		data["level"] = view
	case state.Page == models.PageEnd:
		data["end"] = h.Game.EndView(state)
	}
	return data, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, levels.ErrUnknownLevel):
		return constants.ErrorCodeUnknownLevel
	case errors.Is(err, game.ErrInvalidPage):
		return constants.ErrorCodeInvalidPage
	case errors.Is(err, game.ErrActionNotAllowed):
		return constants.ErrorCodeActionNotAllowed
	}
	return constants.ErrorCodeInternal
}

func setTrigger(c *gin.Context, outcome game.Outcome, errCode string) {
	payload := map[string]string{}
	if outcome != game.OutcomeNone {
		payload["answer_outcome"] = string(outcome)
	}
	if errCode != "" {
		payload["server_error_code"] = errCode
	}
	if len(payload) == 0 {
		return
	}
	if b, err := json.Marshal(payload); err == nil {
		c.Header("HX-Trigger", string(b))
	} else {
		util.LogWarn("Failed to marshal HX-Trigger payload: %v", err)
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
