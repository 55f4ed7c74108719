// Package web serves the server-rendered HTML application: login, the dish
// catalog, ordering, member management and the history page.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/middleware"
	"github.com/mmynk/homekitchen/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxUploadSize bounds multipart form bodies.
const maxUploadSize = 32 << 20

var pages = []string{"login.html", "index.html", "users.html", "order.html", "history.html", "my_orders.html"}

// LoginObserver is told about every login attempt.
type LoginObserver interface {
	ObserveLogin(ok bool)
}

// Options configures a Handler.
type Options struct {
	Title      string
	CookieName string
	// Secure marks the session cookie HTTPS-only.
	Secure bool
	Logins LoginObserver
	Logger *slog.Logger
}

// Handler renders pages and handles form posts.
type Handler struct {
	kitchen  *kitchen.Service
	sessions *auth.SessionManager
	opts     Options
	logger   *slog.Logger
	tmpl     map[string]*template.Template
}

// New parses the embedded templates.
func New(svc *kitchen.Service, sessions *auth.SessionManager, opts Options) (*Handler, error) {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &Handler{
		kitchen:  svc,
		sessions: sessions,
		opts:     opts,
		logger:   opts.Logger,
		tmpl:     make(map[string]*template.Template, len(pages)),
	}

	funcs := template.FuncMap{
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
	}
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(sub, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		h.tmpl[page] = t
	}
	return h, nil
}

// Register mounts every page and form route on mux. The session middleware
// must wrap mux so the logged-in member is in the request context.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", h.loginPage)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /logout", h.logout)

	mux.HandleFunc("GET /{$}", h.authed(h.indexPage))
	mux.HandleFunc("GET /users", h.authed(h.usersPage))
	mux.HandleFunc("GET /order", h.authed(h.orderPage))
	mux.HandleFunc("GET /history", h.authed(h.historyPage))
	mux.HandleFunc("GET /my-orders", h.authed(h.myOrdersPage))
	mux.HandleFunc("GET /get-preference/{dish_id}", h.authed(h.getPreference))

	mux.HandleFunc("POST /create-user", h.authed(h.createUser))
	mux.HandleFunc("POST /update-user/{id}", h.authed(h.updateUser))
	mux.HandleFunc("POST /delete-user/{id}", h.authed(h.deleteUser))
	mux.HandleFunc("POST /update-background", h.authed(h.updateBackground))

	mux.HandleFunc("POST /create-dish", h.authed(h.createDish))
	mux.HandleFunc("POST /update-dish/{id}", h.authed(h.updateDish))
	mux.HandleFunc("POST /delete-dish/{id}", h.authed(h.deleteDish))

	mux.HandleFunc("POST /add-item", h.authed(h.addItem))
	mux.HandleFunc("POST /update-item/{id}", h.authed(h.updateItem))
	mux.HandleFunc("POST /complete-item/{id}", h.authed(h.completeItem))
	mux.HandleFunc("POST /delay-item/{id}", h.authed(h.delayItem))
	mux.HandleFunc("POST /delete-item/{id}", h.authed(h.deleteItem))
	mux.HandleFunc("POST /delete-order/{id}", h.authed(h.deleteOrder))
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// authed redirects to the login page unless the session resolved to a member.
func (h *Handler) authed(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.GetUser(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

// page is the data every template receives.
type page struct {
	Title string
	User  *models.User
	Users []*models.User
	Error string

	// UserNames resolves actor and creator IDs for display.
	UserNames map[int64]string

	Dishes       []*models.Dish
	CurrentOrder *models.Order
	Lines        []*models.OrderLine
	Orders       []*models.Order
	Logs         []*models.AuditLog
}

func (h *Handler) newPage(r *http.Request, user *models.User) (*page, error) {
	users, err := h.kitchen.ListUsers(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return &page{
		Title:     h.opts.Title,
		User:      user,
		Users:     users,
		Error:     r.URL.Query().Get("error"),
		UserNames: names,
	}, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data *page) {
	t, ok := h.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("Failed to render template", "template", name, "error", err)
	}
}

// fail maps a kitchen error to a response. Validation errors go back to
// the form page with the message in ?error=.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, back string, err error) {
	switch {
	case kitchen.IsValidation(err):
		h.logger.Info("Rejected form input", "path", r.URL.Path, "error", err)
		http.Redirect(w, r, back+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
	case errors.Is(err, kitchen.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &kitchen.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func (h *Handler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
