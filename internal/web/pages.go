package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/models"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", &page{
		Title: h.opts.Title,
		Error: r.URL.Query().Get("error"),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	user, err := h.kitchen.Login(r.Context(), name, r.PostFormValue("password"))
	if err != nil && !errors.Is(err, kitchen.ErrAuthentication) {
		h.fail(w, r, "/login", err)
		return
	}
	if h.opts.Logins != nil {
		h.opts.Logins.ObserveLogin(err == nil)
	}
	if err != nil {
		http.Redirect(w, r, "/login?error=1", http.StatusSeeOther)
		return
	}

	token, err := h.sessions.Generate(user)
	if err != nil {
		h.fail(w, r, "/login", err)
		return
	}
	h.setSession(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request, user *models.User) {
	p, err := h.newPage(r, user)
	if err == nil {
		p.Dishes, err = h.kitchen.ActiveDishes(r.Context())
	}
	if err == nil {
		p.CurrentOrder, err = h.kitchen.CurrentOrder(r.Context())
	}
	if err == nil && p.CurrentOrder != nil {
		p.Lines, err = h.kitchen.OrderLines(r.Context(), p.CurrentOrder.ID)
	}
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	h.render(w, "index.html", p)
}

func (h *Handler) usersPage(w http.ResponseWriter, r *http.Request, user *models.User) {
	p, err := h.newPage(r, user)
	if err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	h.render(w, "users.html", p)
}

// orderPage opens a new current order if none exists.
func (h *Handler) orderPage(w http.ResponseWriter, r *http.Request, user *models.User) {
	p, err := h.newPage(r, user)
	if err == nil {
		p.CurrentOrder, err = h.kitchen.EnsureCurrentOrder(r.Context(), user.ID)
	}
	if err == nil {
		p.Dishes, err = h.kitchen.ActiveDishes(r.Context())
	}
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	h.render(w, "order.html", p)
}

func (h *Handler) historyPage(w http.ResponseWriter, r *http.Request, user *models.User) {
	p, err := h.newPage(r, user)
	if err == nil {
		p.Orders, err = h.kitchen.OrderHistory(r.Context())
	}
	if err == nil {
		p.Logs, err = h.kitchen.AuditTrail(r.Context())
	}
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	h.render(w, "history.html", p)
}

func (h *Handler) myOrdersPage(w http.ResponseWriter, r *http.Request, user *models.User) {
	p, err := h.newPage(r, user)
	if err == nil {
		p.CurrentOrder, err = h.kitchen.CurrentOrder(r.Context())
	}
	if err == nil && p.CurrentOrder != nil {
		p.Lines, err = h.kitchen.OrderLines(r.Context(), p.CurrentOrder.ID)
	}
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	h.render(w, "my_orders.html", p)
}

// getPreference answers with the member's last customization of a dish,
// or {} when they never ordered it.
func (h *Handler) getPreference(w http.ResponseWriter, r *http.Request, user *models.User) {
	dishID, err := pathID(r, "dish_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pref, err := h.kitchen.LastPreference(r.Context(), user.ID, dishID)
	if err != nil {
		h.fail(w, r, "/order", err)
		return
	}
	if pref == nil {
		pref = &models.Preference{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pref); err != nil {
		h.logger.Error("Failed to encode preference", "error", err)
	}
}
