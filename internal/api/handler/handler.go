package handler

import (
	"github.com/veilgram/feedsvc/internal/service"
)

// Handler bundles the HTTP-facing services.
type Handler struct {
	feedService *service.FeedService
	relService  service.RelationshipService
}

func New(feed *service.FeedService, rel service.RelationshipService) *Handler {
	return &Handler{feedService: feed, relService: rel}
}
