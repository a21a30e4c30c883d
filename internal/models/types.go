package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CodeAndHammer/blackbox/internal/levels"
)

// LevelCount is the number of level pages.
const LevelCount = 3

var ErrInvalidPage = errors.New("invalid page")

type Page string

const (
	PageStart  Page = "start"
	PageLevel1 Page = "level_1"
	PageLevel2 Page = "level_2"
	PageLevel3 Page = "level_3"
	PageEnd    Page = "end"
)

const levelPagePrefix = "level_"

// Pages lists every page in navigation order.
var Pages = []Page{PageStart, PageLevel1, PageLevel2, PageLevel3, PageEnd}

func ParsePage(s string) (Page, error) {
	p := Page(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
	return p, nil
}

func (p Page) Valid() bool {
	switch p {
	case PageStart, PageLevel1, PageLevel2, PageLevel3, PageEnd:
		return true
	}
	return false
}

// Level returns the level number of a level page.
func (p Page) Level() (int, bool) {
	if !p.Valid() || !strings.HasPrefix(string(p), levelPagePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(p), levelPagePrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// LevelPage is the page for level n.
func LevelPage(n int) (Page, error) {
	if n < 1 || n > LevelCount {
		return "", fmt.Errorf("%w: %d", levels.ErrUnknownLevel, n)
	}
	return Page(levelPagePrefix + strconv.Itoa(n)), nil
}

// SessionState is one user's progress. It is a value: copies are
// independent.
type SessionState struct {
	Page   Page             `json:"currentPage"`
	Score  int              `json:"score"`
	Passed [LevelCount]bool `json:"levelPassed"`
}

func NewSessionState() SessionState {
	return SessionState{Page: PageStart}
}

func (s SessionState) LevelPassed(n int) bool {
	if n < 1 || n > LevelCount {
		return false
	}
	return s.Passed[n-1]
}

// MarkPassed flags level n as passed and reports whether it was newly
// passed. Score only moves together with a flag change.
func (s *SessionState) MarkPassed(n int) (bool, error) {
	if n < 1 || n > LevelCount {
		return false, fmt.Errorf("%w: %d", levels.ErrUnknownLevel, n)
	}
	if s.Passed[n-1] {
		return false, nil
	}
	s.Passed[n-1] = true
	s.Score++
	return true, nil
}

// Reset clears all progress and returns to the start page.
func (s *SessionState) Reset() {
	*s = NewSessionState()
}

// Consistent reports whether Score matches the pass flags.
func (s SessionState) Consistent() bool {
	count := 0
	for _, p := range s.Passed {
		if p {
			count++
		}
	}
	return count == s.Score
}

// SessionEntry is a stored session and its last access time.
type SessionEntry struct {
	State          SessionState
	LastAccessTime time.Time
}

type RateLimiterEntry struct {
	Limiter        *rate.Limiter
	LastAccessTime time.Time
}

// App is the process-wide state shared by handlers and middleware.
type App struct {
	Sessions       map[string]*SessionEntry
	SessionMutex   sync.RWMutex
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	IsProduction   bool
	StartTime      time.Time
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	LimiterSoftCap int
	LimiterHardCap int
	SessionTimeout time.Duration
}
