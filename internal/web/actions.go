package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/models"
)

var customizationFields = []string{"taste", "preferred_time", "location", "ingredients", "remarks"}

// formImage returns the uploaded "file" part, or nil when none was sent.
func formImage(r *http.Request) (*kitchen.Image, func(), error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	if header.Filename == "" || header.Size == 0 {
		file.Close()
		return nil, func() {}, nil
	}
	return &kitchen.Image{Filename: header.Filename, Body: file}, func() { file.Close() }, nil
}

// presentFields copies the posted values of keys into a field map. With
// skipEmpty, blank values are left out.
func presentFields(r *http.Request, skipEmpty bool, keys ...string) models.Fields {
	f := models.Fields{}
	for _, k := range keys {
		vs, ok := r.PostForm[k]
		if !ok || len(vs) == 0 {
			continue
		}
		v := vs[0]
		if skipEmpty && strings.TrimSpace(v) == "" {
			continue
		}
		f[k] = v
	}
	return f
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(maxUploadSize)
	}
	return r.ParseForm()
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields := presentFields(r, true, "name", "password")
	if _, err := h.kitchen.CreateUser(r.Context(), fields, user.ID); err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields := presentFields(r, true, "name", "password")
	if _, err := h.kitchen.UpdateUser(r.Context(), id, fields, user.ID); err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	if id == user.ID {
		http.Redirect(w, r, "/users?error=self_delete", http.StatusSeeOther)
		return
	}
	if err := h.kitchen.DeleteUser(r.Context(), id, user.ID); err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) updateBackground(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, done, err := formImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer done()
	if img == nil {
		http.Redirect(w, r, "/users?error=no_file", http.StatusSeeOther)
		return
	}
	if _, err := h.kitchen.UpdateBackground(r.Context(), user.ID, *img, user.ID); err != nil {
		h.fail(w, r, "/users", err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) createDish(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, done, err := formImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer done()

	fields := presentFields(r, false, "name", "description")
	fields["created_by"] = user.ID
	if _, err := h.kitchen.CreateDish(r.Context(), fields, img, user.ID); err != nil {
		h.fail(w, r, "/", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) updateDish(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, done, err := formImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer done()

	fields := presentFields(r, false, "name", "description")
	if _, err := h.kitchen.UpdateDish(r.Context(), id, fields, img, user.ID); err != nil {
		h.fail(w, r, "/", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) deleteDish(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.kitchen.DeleteDish(r.Context(), id, user.ID)
	}
	if err != nil {
		h.fail(w, r, "/", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields := presentFields(r, true, customizationFields...)
	fields["dish_id"] = r.PostFormValue("dish_id")
	if _, err := h.kitchen.AddToCurrentOrder(r.Context(), fields, user.ID); err != nil {
		h.fail(w, r, "/order", err)
		return
	}
	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "/my-orders", err)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields := presentFields(r, false, customizationFields...)
	if status := r.PostFormValue("status"); status != "" {
		fields["status"] = status
	}
	if _, err := h.kitchen.UpdateOrderItem(r.Context(), id, fields, user.ID); err != nil {
		h.fail(w, r, "/my-orders", err)
		return
	}
	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}

func (h *Handler) setItemStatus(w http.ResponseWriter, r *http.Request, user *models.User, status models.ItemStatus) {
	id, err := pathID(r, "id")
	if err == nil {
		_, err = h.kitchen.SetItemStatus(r.Context(), id, status, user.ID)
	}
	if err != nil {
		h.fail(w, r, "/my-orders", err)
		return
	}
	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}

func (h *Handler) completeItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	h.setItemStatus(w, r, user, models.ItemCompleted)
}

func (h *Handler) delayItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	h.setItemStatus(w, r, user, models.ItemDelayed)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.kitchen.DeleteOrderItem(r.Context(), id, user.ID)
	}
	if err != nil {
		h.fail(w, r, "/my-orders", err)
		return
	}
	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.kitchen.DeleteOrder(r.Context(), id, user.ID)
	}
	if err != nil {
		h.fail(w, r, "/my-orders", err)
		return
	}
	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}
