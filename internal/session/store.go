package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rpattn/adminpanel/internal/auth"
)

// CookieName carries the session id.
const CookieName = "admin_session"

// ErrNoPrincipal is returned when a request reaches the store unauthenticated.
var ErrNoPrincipal = errors.New("session: no authenticated principal")

type entry[T any] struct {
	mu    sync.Mutex
	owner string
	value T
}

// Store keeps one value per browser session in memory. Sessions are bound
// to the principal that created them and expire after ttl without use.
// Interactions on one session are serialized.
type Store[T any] struct {
	mu     sync.Mutex
	cache  *expirable.LRU[string, *entry[T]]
	ttl    time.Duration
	secure bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	secure bool
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(o *options) { o.secure = secure }
}

// NewStore creates a store holding at most size sessions. Evicted values that
// have a Close method are closed.
func NewStore[T any](size int, ttl time.Duration, opts ...Option) *Store[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if size <= 0 {
		size = 1024
	}
	onEvict := func(_ string, e *entry[T]) {
		closer, ok := any(e.value).(interface{ Close() })
		if !ok {
			return
		}
		// the evicted session may still be mid-interaction
		go func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			closer.Close()
		}()
	}
	return &Store[T]{
		cache:  expirable.NewLRU[string, *entry[T]](size, onEvict, ttl),
		ttl:    ttl,
		secure: o.secure,
	}
}

// Acquire returns the session value behind r, creating it with create when
// the request has no live session for its principal. The value is locked
// until release is called.
func (s *Store[T]) Acquire(w http.ResponseWriter, r *http.Request, create func(ctx context.Context) (T, error)) (value T, release func(), err error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return value, nil, ErrNoPrincipal
	}

	s.mu.Lock()
	id := cookieValue(r)
	e, found := s.cache.Get(id)
	if !found || e.owner != principal.UserID {
		created, err := create(r.Context())
		if err != nil {
			s.mu.Unlock()
			return value, nil, err
		}
		id = uuid.NewString()
		e = &entry[T]{owner: principal.UserID, value: created}
		s.setCookie(w, id)
	}
	// re-adding slides the expiry
	s.cache.Add(id, e)
	s.mu.Unlock()

	e.mu.Lock()
	return e.value, e.mu.Unlock, nil
}

// Lookup is Acquire without creation.
func (s *Store[T]) Lookup(r *http.Request) (value T, release func(), ok bool) {
	principal, authed := auth.PrincipalFromContext(r.Context())
	if !authed {
		return value, nil, false
	}
	e, found := s.cache.Get(cookieValue(r))
	if !found || e.owner != principal.UserID {
		return value, nil, false
	}
	e.mu.Lock()
	return e.value, e.mu.Unlock, true
}

// Len reports the number of live sessions.
func (s *Store[T]) Len() int {
	return s.cache.Len()
}

// Purge drops every session, closing the values.
func (s *Store[T]) Purge() {
	s.cache.Purge()
}

func (s *Store[T]) setCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.ttl > 0 {
		cookie.MaxAge = int(s.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}

func cookieValue(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
