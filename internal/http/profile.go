package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/stockcast/internal/auth"
)

// ProfileController serves the signed-in user's own profile. It must be
// mounted behind auth.Middleware.RequireSession.
type ProfileController struct{}

func NewProfileController() *ProfileController {
	return &ProfileController{}
}

// Show returns the profile the session guard attached to the request.
func (p *ProfileController) Show(c *gin.Context) {
	profile := auth.GetProfile(c)
	if profile == nil {
		auth.WriteError(c, auth.Unauthorized())
		return
	}
	c.JSON(http.StatusOK, profile)
}
