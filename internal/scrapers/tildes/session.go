package tildes

import "sync/atomic"

// Session holds the anti-forgery token and the username of a login that is
// waiting on a two factor code.
//
// Every field is read and written atomically, concurrent writers are
// last-writer-wins.
type Session struct {
	token           atomic.Pointer[string]
	pendingUsername atomic.Pointer[string]
}

func NewSession() *Session {
	return &Session{}
}

func load(p *atomic.Pointer[string]) (string, bool) {
	value := p.Load()
	if value == nil {
		return "", false
	}
	return *value, true
}

// Token returns the most recently observed anti-forgery token.
func (s *Session) Token() (string, bool) {
	return load(&s.token)
}

// SetToken overwrites the token, no validation is done on its shape.
func (s *Session) SetToken(token string) {
	s.token.Store(&token)
}

func (s *Session) ClearToken() {
	s.token.Store(nil)
}

func (s *Session) PendingUsername() (string, bool) {
	return load(&s.pendingUsername)
}

func (s *Session) SetPendingUsername(username string) {
	s.pendingUsername.Store(&username)
}

func (s *Session) ClearPendingUsername() {
	s.pendingUsername.Store(nil)
}
