package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
)

// visitor is the state held for one browser: its wellness chat screen and its static shell.
type visitor struct {
	id    string
	chat  *chat.Session
	shell *chat.Shell

	// Guarded by visitors.mu.
	lastSeen time.Time
	streams  int
}

// visitors is the in-memory registry of browser sessions. A visitor without an open event stream is dropped
// after idleTTL, and the registry never holds more than limit visitors.
type visitors struct {
	idleTTL time.Duration
	limit   int
	now     func() time.Time

	mu sync.Mutex
	m  map[string]*visitor
}

const (
	visitorIdleTTL = 30 * time.Minute
	visitorLimit   = 10000
)

func newVisitors(idleTTL time.Duration, limit int) *visitors {
	return &visitors{
		idleTTL: idleTTL,
		limit:   limit,
		now:     time.Now,
		m:       make(map[string]*visitor),
	}
}

func (vs *visitors) get(id string) (*visitor, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.m[id]
	if ok {
		v.lastSeen = vs.now()
	}
	return v, ok
}

// add registers v, evicting idle visitors first. Evicted shells are stopped.
func (vs *visitors) add(v *visitor) {
	vs.mu.Lock()
	now := vs.now()
	v.lastSeen = now
	evicted := vs.evictLocked(now)
	vs.m[v.id] = v
	vs.mu.Unlock()

	for _, e := range evicted {
		e.shell.Stop()
	}
}

func (vs *visitors) evictLocked(now time.Time) []*visitor {
	var evicted []*visitor
	for id, v := range vs.m {
		if v.streams == 0 && now.Sub(v.lastSeen) > vs.idleTTL {
			evicted = append(evicted, v)
			delete(vs.m, id)
		}
	}

	for len(vs.m) >= vs.limit {
		var oldest *visitor
		for _, v := range vs.m {
			if v.streams == 0 && (oldest == nil || v.lastSeen.Before(oldest.lastSeen)) {
				oldest = v
			}
		}
		if oldest == nil {
			break
		}
		evicted = append(evicted, oldest)
		delete(vs.m, oldest.id)
	}
	return evicted
}

// connect marks an open event stream of the visitor with the given id, which keeps it from being evicted
// until disconnect.
func (vs *visitors) connect(id string) (*visitor, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.m[id]
	if !ok {
		return nil, false
	}
	v.streams++
	v.lastSeen = vs.now()
	return v, true
}

func (vs *visitors) disconnect(v *visitor) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v.streams--
	v.lastSeen = vs.now()
}

func (vs *visitors) count() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.m)
}

func (vs *visitors) each(fn func(*visitor)) {
	vs.mu.Lock()
	all := make([]*visitor, 0, len(vs.m))
	for _, v := range vs.m {
		all = append(all, v)
	}
	vs.mu.Unlock()

	for _, v := range all {
		fn(v)
	}
}

// visitor returns the state of the browser that sent r. A browser without a known session cookie gets a
// fresh session and the cookie is set on w.
func (m Main) visitor(w http.ResponseWriter, r *http.Request) *visitor {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if v, ok := m.visitors.get(c.Value); ok {
			return v
		}
	}

	id := uuid.New().String()
	v := &visitor{id: id}
	v.chat = chat.NewSession(m.api, screenListener{m: m, visitorID: id}, m.logger)
	v.shell = chat.NewShell(m.shellDelay, m.shellChanged(id))
	m.visitors.add(v)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Debug("New visitor", slog.String("visitor", id))

	return v
}
