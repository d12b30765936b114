package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/internal/services"
	appErrors "github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

// UserHandler serves user search.
type UserHandler struct {
	svc   *services.UserService
	limit int
}

// NewUserHandler wires a UserHandler returning at most limit results per search.
func NewUserHandler(svc *services.UserService, limit int) *UserHandler {
	if limit <= 0 {
		limit = services.DefaultUserSearchLimit
	}
	return &UserHandler{svc: svc, limit: limit}
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

func mapUser(user *models.User) userDTO {
	return userDTO{ID: user.ID, Username: user.Username, Fullname: user.Fullname}
}

// GET /search/user/?name=
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.svc.Search(requestContext(c), c.Query("name"), parseIntQuery(c, "limit", h.limit))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, mapUser(&users[i]))
	}
	response.OK(c, out)
}
