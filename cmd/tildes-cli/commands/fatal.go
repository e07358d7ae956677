package commands

import (
	"fmt"
	"sync"
	"tildes-client/lib/util/serviceutil"
)

var (
	cleanupMutex sync.Mutex
	cleanups     []*cleanup
)

// exit terminates the process, it is replaced in tests.
var exit = serviceutil.Fatal

type cleanup struct {
	once sync.Once
	fn   func()
}

func (c *cleanup) run() {
	c.once.Do(c.fn)
}

// onFatal registers fn to run before the process exits through fatal. The
// returned function runs fn at most once, whichever comes first.
func onFatal(fn func()) func() {
	c := &cleanup{fn: fn}

	cleanupMutex.Lock()
	cleanups = append(cleanups, c)
	cleanupMutex.Unlock()

	return c.run
}

func runCleanups() {
	cleanupMutex.Lock()
	pending := cleanups
	cleanups = nil
	cleanupMutex.Unlock()

	// in reverse, like defers
	for i := len(pending) - 1; i >= 0; i-- {
		pending[i].run()
	}
}

// fatal logs out every open session and exits, os.Exit skips deferred calls
// so Close would never run otherwise.
func fatal(message string, err error) {
	runCleanups()
	exit(message, err)
}

func fatalf(format string, args ...any) {
	fatal(fmt.Sprintf(format, args...), nil)
}
