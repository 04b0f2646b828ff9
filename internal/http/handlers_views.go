package httpx

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
)

// ViewDescriptor stands in for a rendered page: it names the view the console
// would show and the data it would be rendered with.
type ViewDescriptor struct {
	View   string            `json:"view"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Query  url.Values        `json:"query,omitempty"`
	User   *domainauth.User  `json:"user,omitempty"`
	Error  string            `json:"error,omitempty"`

	// CSRFToken must be echoed by forms posted from this view.
	CSRFToken string `json:"csrfToken,omitempty"`
}

// ViewHandlers renders view descriptors for guarded console routes.
type ViewHandlers struct {
	Session SessionStore
}

// Render writes the descriptor of the matched route.
func (h *ViewHandlers) Render(w http.ResponseWriter, r *http.Request) {
	name := ""
	if current := mux.CurrentRoute(r); current != nil {
		name = current.GetName()
	}

	snap := h.Session.Snapshot()
	view := ViewDescriptor{
		View:      name,
		Path:      r.URL.Path,
		Params:    mux.Vars(r),
		Query:     r.URL.Query(),
		User:      snap.User,
		CSRFToken: GetCSRFToken(r),
	}
	if name == RouteLogin {
		view.Error = snap.LastError
	}
	if len(view.Query) == 0 {
		view.Query = nil
	}
	WriteJSON(w, http.StatusOK, view)
}

func writeLoginView(w http.ResponseWriter, r *http.Request, status int, message string) {
	query := r.URL.Query()
	if len(query) == 0 {
		query = nil
	}
	WriteJSON(w, status, ViewDescriptor{
		View:  RouteLogin,
		Path:      r.URL.Path,
		Query:     query,
		Error:     message,
		CSRFToken: GetCSRFToken(r),
	})
}
