package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veilgram/feedsvc/pkg/response"
)

// identity arrives from the gateway; session handling lives upstream
func callerID(c *gin.Context) string {
	if uid := c.GetHeader("X-User-ID"); uid != "" {
		return uid
	}
	return c.Query("user_id")
}

// absent size stays 0; the feed service substitutes its configured default
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	return page, size
}

// Following returns one page of the caller's following feed.
// @Router /api/v1/feed/following [get]
func (h *Handler) Following(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		response.Unauthorized(c, "missing user identity")
		return
	}
	page, size := pageParams(c)
	rows, err := h.feedService.FetchFollowingFeed(c.Request.Context(), userID, page, size)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, rows)
}

// Hashtag returns one page of a hashtag feed.
// @Router /api/v1/feed/hashtags/{tag} [get]
func (h *Handler) Hashtag(c *gin.Context) {
	tag := c.Param("tag")
	if tag == "" {
		response.BadRequest(c, "missing tag")
		return
	}
	page, size := pageParams(c)
	rows, err := h.feedService.FetchHashtagFeed(c.Request.Context(), tag, page, size)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, rows)
}

// TopHashtags returns the current popularity ranking.
// @Router /api/v1/feed/hashtags [get]
func (h *Handler) TopHashtags(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	tags, err := h.feedService.TopHashtags(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, tags)
}
