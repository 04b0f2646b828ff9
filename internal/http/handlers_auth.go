package httpx

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
)

// AuthHandlers serves the login form submission, logout and the session summary.
type AuthHandlers struct {
	Session SessionStore
	Guard   NavigationGuard
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Redirect string `json:"redirect,omitempty"`
}

// Login handles the login form.
// POST /login (form or JSON body) with an optional redirect query parameter.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readLogin(w, r)
	if !ok {
		return
	}

	creds := domainauth.Credentials{Username: strings.TrimSpace(req.Username), Password: req.Password}
	if creds.Username == "" || creds.Password == "" {
		writeLoginView(w, r, http.StatusBadRequest, "Username and password are required.")
		return
	}

	if err := h.Session.Login(r.Context(), creds); err != nil {
		// The store keeps the message shown on the login page.
		writeLoginView(w, r, statusForError(err), h.Session.Snapshot().LastError)
		return
	}

	h.redirect(w, r, h.postLoginRedirect(req.Redirect))
}

func (h *AuthHandlers) readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var req loginRequest
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		if !DecodeJSON(w, r, &req) {
			return req, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
			return req, false
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		req.Redirect = r.PostFormValue(h.Guard.RedirectParam())
	}
	if req.Redirect == "" {
		req.Redirect = r.URL.Query().Get(h.Guard.RedirectParam())
	}
	return req, true
}

// postLoginRedirect returns candidate when it is a safe relative path that does
// not lead back to the login page, otherwise the landing route.
func (h *AuthHandlers) postLoginRedirect(candidate string) string {
	target := safeRedirectPath(candidate)
	if target == "" {
		return h.Guard.LandingPath()
	}
	if u, err := url.Parse(target); err == nil && u.Path == h.Guard.LoginPath() {
		return h.Guard.LandingPath()
	}
	return target
}

// Logout ends the session and sends the browser to the login page.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Session.Logout(r.Context())
	h.logger().InfoContext(r.Context(), "console session signed out")
	h.redirect(w, r, h.Guard.LoginPath())
}

// redirect answers AJAX requests with a JSON payload and everything else with 303.
func (h *AuthHandlers) redirect(w http.ResponseWriter, r *http.Request, location string) {
	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": location,
		})
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// SessionSummary is the public view of the console session. Tokens are never exposed.
type SessionSummary struct {
	State         domainauth.State `json:"state"`
	Authenticated bool             `json:"authenticated"`
	Loading       bool             `json:"loading"`
	LastError     string           `json:"lastError,omitempty"`
	User          *domainauth.User `json:"user,omitempty"`
}

// Status returns the current session summary.
// GET /session.
func (h *AuthHandlers) Status(w http.ResponseWriter, _ *http.Request) {
	snap := h.Session.Snapshot()
	WriteJSON(w, http.StatusOK, SessionSummary{
		State:         snap.State(),
		Authenticated: snap.IsAuthenticated(),
		Loading:       snap.Loading,
		LastError:     snap.LastError,
		User:          snap.User,
	})
}

func isAJAX(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// safeRedirectPath returns candidate when it is a same-origin absolute path, or ""
// otherwise. Browsers read a backslash as "/", so "/\host" counts as "//host".
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.ContainsAny(candidate, "\\\r\n\t") {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, "\\") {
		return ""
	}
	return candidate
}
