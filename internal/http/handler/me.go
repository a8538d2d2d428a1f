package handler

import (
	"encoding/json"
	"net/http"

	"fixbet/internal/auth"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all handlers in this package.
var validate = validator.New()

type MeHandler struct{}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id": uid,
		"role":    role,
	})
}
