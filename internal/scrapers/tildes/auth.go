package tildes

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	op_login            = "login"
	op_login_two_factor = "login-two-factor"
	op_logout           = "logout"
)

// loginMessageLimit is the longest response body that is still treated as a
// human readable rejection message.
const loginMessageLimit = 100

type LoginOutcome int

const (
	LoginSucceeded LoginOutcome = iota
	// LoginNeedsTwoFactor means LoginTwoFactor must be called with the code
	// of the user's authenticator.
	LoginNeedsTwoFactor
)

func (o LoginOutcome) String() string {
	if o == LoginNeedsTwoFactor {
		return "needs-two-factor"
	}
	return "succeeded"
}

func loginError(res response) *LoginError {
	message := strings.TrimSpace(string(res.body))
	if len(message) >= loginMessageLimit {
		message = ""
	}
	return &LoginError{Code: res.status, Message: message}
}

// Login logs the session in, the login page is fetched first so that the
// session holds a fresh token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginOutcome, error) {
	referer := c.absolute("/login")

	_, _, err := c.fetchDocument(ctx, op_login, "/login", referer)
	if err != nil {
		return LoginSucceeded, err
	}
	token, err := c.token(op_login)
	if err != nil {
		return LoginSucceeded, err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("csrf_token", token)

	res, err := c.exchange(ctx, request{
		op:            op_login,
		method:        http.MethodPost,
		path:          "/login",
		referer:       referer,
		form:          form,
		authenticated: true,
		ajax:          true,
	})
	if err != nil {
		return LoginSucceeded, err
	}

	doc, err := c.parse(op_login, res.body)
	if err == nil && has(doc.Selection, selTwoFactorPrompt) {
		c.Session.SetPendingUsername(username)
		return LoginNeedsTwoFactor, nil
	}
	if res.status != http.StatusOK {
		lerr := loginError(res)
		c.tel.ReportWarning(op_login, lerr)
		return LoginSucceeded, lerr
	}

	c.Session.ClearPendingUsername()
	return LoginSucceeded, nil
}

// LoginTwoFactor completes a login that returned LoginNeedsTwoFactor.
func (c *Client) LoginTwoFactor(ctx context.Context, code string) error {
	token, err := c.token(op_login_two_factor)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("ic-request", strconv.FormatBool(false))
	form.Set("csrf_token", token)

	res, err := c.exchange(ctx, request{
		op:            op_login_two_factor,
		method:        http.MethodPost,
		path:          "/login_two_factor",
		referer:       c.absolute("/login"),
		form:          form,
		authenticated: true,
	})
	if err != nil {
		return err
	}
	if res.status != http.StatusOK {
		lerr := loginError(res)
		c.tel.ReportWarning(op_login_two_factor, lerr)
		return lerr
	}

	c.Session.ClearPendingUsername()
	return nil
}

// Logout ends the session, a session the server already considers logged
// out is logged out successfully.
func (c *Client) Logout(ctx context.Context) error {
	token, err := c.token(op_logout)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("csrf_token", token)

	res, err := c.exchange(ctx, request{
		op:            op_logout,
		method:        http.MethodPost,
		path:          "/logout",
		referer:       c.absolute("/logout"),
		form:          form,
		authenticated: true,
	})
	if err != nil {
		return err
	}
	if res.status != http.StatusOK && res.status != http.StatusForbidden {
		return &StatusError{Op: op_logout, Code: res.status}
	}

	c.Session.ClearToken()
	c.Session.ClearPendingUsername()
	return nil
}
