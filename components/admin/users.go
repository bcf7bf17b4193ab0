// components/admin/users.go
//
// User administration.  Responses use a projection type; the identity
// record carries the bcrypt hash and security stamp, and neither may ever
// reach a JSON body.
package admin

import (
	"net/http"
	"time"

	"github.com/mosaic-cms/mosaic/internal/identity"
)

type userView struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles,omitempty"`
	LockedOut   bool      `json:"locked_out"`
	CreatedAt   time.Time `json:"created_at"`
}

type createUserRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Username    string `json:"username"     validate:"required,min=3,max=40,alphanum"`
	Password    string `json:"password"     validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"omitempty,max=120"`
	Role        string `json:"role"         validate:"omitempty,oneof=administrator editor member"`
}

func viewOf(u *identity.User, roles []string, now time.Time) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Roles:       roles,
		LockedOut:   u.LockedOut(now),
		CreatedAt:   u.CreatedAt,
	}
}

func (c *Component) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := identity.All(r.Context(), c.db)
	if err != nil {
		c.fail(w, err)
		return
	}

	now := time.Now()
	out := make([]userView, 0, len(users))
	for i := range users {
		roles, err := identity.Roles(r.Context(), c.db, users[i].ID)
		if err != nil {
			c.fail(w, err)
			return
		}
		out = append(out, viewOf(&users[i], roles, now))
	}
	respond(w, http.StatusOK, out)
}

func (c *Component) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}
	if req.Role == "" {
		req.Role = identity.RoleMember
	}

	u, err := c.signin.Register(r.Context(), req.Email, req.Username, req.Password, req.DisplayName)
	if err != nil {
		c.fail(w, err)
		return
	}
	if err := identity.AddRole(r.Context(), c.db, u.ID, req.Role); err != nil {
		c.fail(w, err)
		return
	}

	c.log.Infow("user created", "user_id", u.ID, "username", u.Username, "role", req.Role)
	respond(w, http.StatusCreated, viewOf(u, []string{req.Role}, time.Now()))
}
