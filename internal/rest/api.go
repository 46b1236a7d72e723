package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/internal/middleware"
)

// Api holds the services behind the JSON routes.
type Api struct {
	posts    *application.PostService
	admin    *application.AdminService
	sessions *session.Manager
	images   domain.ImageRepository
}

// NewApi registers the JSON routes on router. images may be nil when nothing is mirrored.
func NewApi(
	router gin.IRouter,
	posts *application.PostService,
	admin *application.AdminService,
	sessions *session.Manager,
	images domain.ImageRepository,
) *Api {
	a := &Api{posts: posts, admin: admin, sessions: sessions, images: images}

	public := router.Group("api")
	{
		public.GET("/posts", a.GetPosts)
		public.GET("/posts/:slug", a.GetPost)
		public.GET("/tags", a.GetTags)
		public.GET("/tags/:tag", a.GetTagPosts)
		public.GET("/categories", a.GetCategories)
	}

	adminGroup := router.Group("api/admin")
	{
		adminGroup.POST("/login", a.Login)
		adminGroup.POST("/logout", a.Logout)

		authed := adminGroup.Group("", middleware.RequireSession(sessions))
		authed.GET("/posts", a.ListAdminPosts)
		authed.GET("/posts/:id", a.GetAdminPost)
		authed.POST("/posts", a.CreatePost)
		authed.PUT("/posts/:id", a.UpdatePost)
		authed.DELETE("/posts/:id", a.DeletePost)
		authed.POST("/posts/:id/toggle-draft", a.ToggleDraft)
		authed.POST("/posts/:id/shift-date", a.ShiftDate)
	}

	if images != nil {
		router.GET("/images/*name", a.GetImage)
	}

	return a
}
