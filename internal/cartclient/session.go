package cartclient

import "sync"

// SessionUser is the role-tagged account record returned at login. The role
// only drives navigation; authorization is enforced server-side per route.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session holds the bearer token and user record for the signed-in account.
// It replaces scattered local-storage reads with typed accessors and a single
// invalidation point: Clear, called on logout or when the server says 401.
type Session struct {
	mu     sync.RWMutex
	token  string
	user   SessionUser
	active bool
}

func (s *Session) Start(token string, user SessionUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.active = true
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.active
}

func (s *Session) User() (SessionUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.active
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return ""
	}
	return s.user.Role
}

// Clear invalidates the session. Every accessor reports inactive afterwards.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = SessionUser{}
	s.active = false
}
