package tildes

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	session := NewSession()

	_, ok := session.Token()
	require.False(t, ok)

	session.SetToken("A")
	session.SetToken("B")
	token, ok := session.Token()
	require.True(t, ok)
	require.Equal(t, "B", token)

	session.ClearToken()
	_, ok = session.Token()
	require.False(t, ok)
}

func TestSessionPendingUsername(t *testing.T) {
	session := NewSession()

	session.SetPendingUsername("alice")
	username, ok := session.PendingUsername()
	require.True(t, ok)
	require.Equal(t, "alice", username)

	session.ClearPendingUsername()
	_, ok = session.PendingUsername()
	require.False(t, ok)
}

func TestSessionConcurrentWrites(t *testing.T) {
	session := NewSession()

	written := map[string]bool{}
	for i := 0; i < 32; i++ {
		written[fmt.Sprintf("token-%02d-%s", i, "xxxxxxxxxxxxxxxx")] = true
	}

	wg := sync.WaitGroup{}
	for token := range written {
		wg.Add(2)
		go func(token string) {
			defer wg.Done()
			session.SetToken(token)
		}(token)
		go func() {
			defer wg.Done()
			observed, ok := session.Token()
			if ok && !written[observed] {
				t.Errorf("observed a token that was never written: %q", observed)
			}
		}()
	}
	wg.Wait()

	final, ok := session.Token()
	require.True(t, ok)
	require.True(t, written[final])
}
