package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/blackbox/internal/constants"
	models "github.com/CodeAndHammer/blackbox/internal/models"
	util "github.com/CodeAndHammer/blackbox/internal/util"
)

func GetOrCreateSession(app *models.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(constants.SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("%sCreated new session: %s", util.LogPrefix(c.Request.Context()), sessionID)
	}
	return sessionID
}

// GetSessionState returns a copy of the stored state, or a fresh state
// for unknown sessions. A fresh state is not stored until saved.
func GetSessionState(app *models.App, ctx context.Context, sessionID string) models.SessionState {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	entry, exists := app.Sessions[sessionID]
	if exists {
		entry.LastAccessTime = time.Now()
		util.LogDebug("%sRetrieved session state for %s, updated last access time", util.LogPrefix(ctx), sessionID)
		return entry.State
	}

	util.LogDebug("%sNo state for session %s, starting fresh", util.LogPrefix(ctx), sessionID)
	return models.NewSessionState()
}

func SaveSessionState(app *models.App, sessionID string, state models.SessionState) {
	app.SessionMutex.Lock()
	app.Sessions[sessionID] = &models.SessionEntry{
		State:          state,
		LastAccessTime: time.Now(),
	}
	app.SessionMutex.Unlock()
	util.LogDebug("Updated in-memory state for session: %s", sessionID)
}

func DeleteSession(app *models.App, sessionID string) {
	app.SessionMutex.Lock()
	delete(app.Sessions, sessionID)
	app.SessionMutex.Unlock()
}

func SessionCount(app *models.App) int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}

// CleanupExpiredSessions drops sessions idle for longer than the session
// timeout and returns how many were removed.
func CleanupExpiredSessions(app *models.App, now time.Time) int {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	expiredCount := 0
	for sessionID, entry := range app.Sessions {
		if now.Sub(entry.LastAccessTime) > app.SessionTimeout {
			delete(app.Sessions, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired sessions", expiredCount)
	}
	return expiredCount
}

// RunSessionCleanup sweeps expired sessions every interval until ctx is
// done.
func RunSessionCleanup(ctx context.Context, app *models.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	util.LogInfo("Started session cleanup every %v", interval)
	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Stopped session cleanup")
			return
		case now := <-ticker.C:
			CleanupExpiredSessions(app, now)
		}
	}
}
