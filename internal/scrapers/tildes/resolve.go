package tildes

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Outcome is the tagged result of interpreting a mutation's response.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSucceeded
	// OutcomeRateLimited carries the time to wait before trying again.
	OutcomeRateLimited
	// OutcomeNeedsFallback means the response alone cannot tell whether the
	// mutation succeeded.
	OutcomeNeedsFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRateLimited:
		return "rate-limited"
	case OutcomeNeedsFallback:
		return "needs-fallback"
	default:
		return "failed"
	}
}

// ErrCreatePostUnconfirmed is the failure of a post that neither the
// response nor the fallback lookup could confirm.
var ErrCreatePostUnconfirmed = errors.New("tildes: created post could not be confirmed")

// redirectRegex matches the `/~group/postId` target of a successful post.
var redirectRegex = regexp.MustCompile(`(~[a-zA-Z\.\-_]+)/([a-zA-Z0-9]+)`)

type resolution struct {
	outcome    Outcome
	postId     string
	retryAfter time.Duration
	err        error
}

// resolveCreatePost interprets the response to a create post request, the
// first matching rule wins:
//
//  1. a Retry-After header means rate limited, whatever the status
//  2. a status other than 200 is a failure
//  3. no redirect target needs the fallback
//  4. a non-empty body needs the fallback
//  5. a redirect into another group needs the fallback, else success
func resolveCreatePost(op string, res response, requestedGroup string, now time.Time) resolution {
	if raw := res.header.Get(headerRetryAfter); raw != "" {
		return resolution{
			outcome:    OutcomeRateLimited,
			retryAfter: parseRetryAfter(raw, now),
		}
	}
	if res.status != http.StatusOK {
		return resolution{
			outcome: OutcomeFailed,
			err:     &StatusError{Op: op, Code: res.status},
		}
	}

	redirect := res.header.Get(headerRedirect)
	if redirect == "" {
		return resolution{outcome: OutcomeNeedsFallback}
	}
	if len(res.body) > 0 {
		return resolution{outcome: OutcomeNeedsFallback}
	}

	match := redirectRegex.FindStringSubmatch(redirect)
	if match == nil || match[1] != requestedGroup {
		return resolution{outcome: OutcomeNeedsFallback}
	}
	return resolution{
		outcome: OutcomeSucceeded,
		postId:  match[2],
	}
}

// parseRetryAfter accepts both delta seconds and an http date, a value that
// is neither (or a date in the past) is no wait at all.
func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	seconds, err := strconv.Atoi(raw)
	if err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	date, err := http.ParseTime(raw)
	if err != nil {
		return 0
	}
	wait := date.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait.Truncate(time.Second)
}

// resolveStatus is the rule of every mutation other than creating a post.
func resolveStatus(op string, res response) error {
	if res.status != http.StatusOK {
		return &StatusError{Op: op, Code: res.status}
	}
	return nil
}
