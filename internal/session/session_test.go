package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	constants "github.com/CodeAndHammer/blackbox/internal/constants"
	models "github.com/CodeAndHammer/blackbox/internal/models"
	session "github.com/CodeAndHammer/blackbox/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func testApp() *models.App {
	return &models.App{
		Sessions:       make(map[string]*models.SessionEntry),
		CookieMaxAge:   time.Hour,
		SessionTimeout: time.Hour,
	}
}

func TestGetOrCreateSessionSetsCookie(t *testing.T) {
	app := testApp()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	id := session.GetOrCreateSession(app, c)
	require.Len(t, id, 36)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestGetOrCreateSessionReusesCookie(t *testing.T) {
	app := testApp()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "existing-session-id"})

	assert.Equal(t, "existing-session-id", session.GetOrCreateSession(app, c))
	assert.Empty(t, w.Result().Cookies())
}

func TestStateIsolationBetweenSessions(t *testing.T) {
	app := testApp()
	ctx := context.Background()

	fresh := session.GetSessionState(app, ctx, "a")
	assert.Equal(t, models.NewSessionState(), fresh)
	assert.Zero(t, session.SessionCount(app), "reading must not store")

	s := fresh
	_, err := s.MarkPassed(1)
	require.NoError(t, err)
	s.Page = models.PageLevel2
	session.SaveSessionState(app, "a", s)

	assert.Equal(t, s, session.GetSessionState(app, ctx, "a"))
	assert.Equal(t, models.NewSessionState(), session.GetSessionState(app, ctx, "b"))
	assert.Equal(t, 1, session.SessionCount(app))

	session.DeleteSession(app, "a")
	assert.Equal(t, models.NewSessionState(), session.GetSessionState(app, ctx, "a"))
}

func TestCleanupExpiredSessions(t *testing.T) {
	app := testApp()
	now := time.Now()
	app.Sessions["old"] = &models.SessionEntry{State: models.NewSessionState(), LastAccessTime: now.Add(-2 * time.Hour)}
	app.Sessions["new"] = &models.SessionEntry{State: models.NewSessionState(), LastAccessTime: now.Add(-time.Minute)}

	assert.Equal(t, 1, session.CleanupExpiredSessions(app, now))
	assert.Contains(t, app.Sessions, "new")
	assert.NotContains(t, app.Sessions, "old")
}

func TestRunSessionCleanupStopsWithContext(t *testing.T) {
	app := testApp()
	app.SessionTimeout = time.Millisecond
	app.Sessions["stale"] = &models.SessionEntry{LastAccessTime: time.Now().Add(-time.Hour)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		session.RunSessionCleanup(ctx, app, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return session.SessionCount(app) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
