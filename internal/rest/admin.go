package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/api"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/internal/middleware"
)

func (a *Api) Login(c *gin.Context) {
	req := &api.LoginRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := a.sessions.Login(c.Request.Context(), req.Token, req.Remember)
	if err != nil {
		writeError(c, err)
		return
	}

	http.SetCookie(c.Writer, session.Cookie(sess, c.Request.TLS != nil))
	c.JSON(http.StatusOK, gin.H{"persist": sess.Persist, "expiresAt": sess.ExpiresAt})
}

func (a *Api) Logout(c *gin.Context) {
	if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
		if err := a.sessions.Logout(c.Request.Context(), id); err != nil {
			log.Warn().Err(err).Str("requestID", middleware.GetRequestID(c)).Msg("Failed to clear session")
		}
	}
	http.SetCookie(c.Writer, session.ClearCookie(c.Request.TLS != nil))
	c.Status(http.StatusNoContent)
}

func (a *Api) ListAdminPosts(c *gin.Context) {
	posts, err := a.admin.List(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]api.AdminPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, api.ToAdminPost(p))
	}
	c.JSON(http.StatusOK, out)
}

func (a *Api) GetAdminPost(c *gin.Context) {
	post, err := a.admin.Get(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ToAdminPost(post))
}

func (a *Api) CreatePost(c *gin.Context) {
	req := &api.PostRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := a.admin.Create(c.Request.Context(), middleware.GetSession(c), req.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.ToAdminPost(post))
}

func (a *Api) UpdatePost(c *gin.Context) {
	req := &api.PostRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := a.admin.Update(c.Request.Context(), middleware.GetSession(c), c.Param("id"), req.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ToAdminPost(post))
}

func (a *Api) DeletePost(c *gin.Context) {
	if err := a.admin.Delete(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) ToggleDraft(c *gin.Context) {
	post, err := a.admin.ToggleDraft(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ToAdminPost(post))
}

func (a *Api) ShiftDate(c *gin.Context) {
	req := &api.ShiftRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := a.admin.ShiftDate(c.Request.Context(), middleware.GetSession(c), c.Param("id"), req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ToAdminPost(post))
}
