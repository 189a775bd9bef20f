package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/veilgram/feedsvc/internal/api/handler"
	"github.com/veilgram/feedsvc/internal/realtime"
)

// NewRouter wires the feed read API, the relations API, and the realtime
// websocket endpoint. rt may be nil when realtime is disabled.
func NewRouter(h *handler.Handler, rt *realtime.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	v1 := r.Group("/api/v1")
	{
		feed := v1.Group("/feed")
		{
			feed.GET("/following", h.Following)
			feed.GET("/hashtags", h.TopHashtags)
			feed.GET("/hashtags/:tag", h.Hashtag)
			if rt != nil {
				feed.GET("/ws", rt.ServeWS)
			}
		}
		rel := v1.Group("/relations")
		{
			rel.POST("/follow", h.Follow)
			rel.POST("/unfollow", h.Unfollow)
			rel.GET("/:user_id/following", h.ListFollowing)
			rel.GET("/:user_id/fans", h.ListFans)
		}
	}
	return r
}
