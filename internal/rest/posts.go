package rest

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/artblog/api"
	"github.com/dfryer1193/artblog/blog/query"
)

func (a *Api) GetPosts(c *gin.Context) {
	criteria := query.ParseCriteria(c.Request.URL.Query())

	result, err := a.posts.List(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromListResult(result))
}

func (a *Api) GetPost(c *gin.Context) {
	view, err := a.posts.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromView(view))
}

func (a *Api) GetTags(c *gin.Context) {
	tags, err := a.posts.Tags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (a *Api) GetTagPosts(c *gin.Context) {
	posts, err := a.posts.ByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromDomainList(posts))
}

func (a *Api) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, query.Categories())
}

func (a *Api) GetImage(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	img, err := a.images.GetImage(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(img.Path))
	if contentType == "" {
		contentType = http.DetectContentType(img.Content)
	}
	c.Header("ETag", `"`+img.Hash+`"`)
	c.Data(http.StatusOK, contentType, img.Content)
}
