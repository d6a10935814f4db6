// server exposes the managers over REST plus one websocket route for live
// feed snapshots. Every handler reads the caller id from the "sub" header
// installed by the auth middleware and maps domain errors to a stable JSON
// error body.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/engagement"
	"github.com/yifanzhou/storyshare/feed"
	"github.com/yifanzhou/storyshare/pipeline"
	"github.com/yifanzhou/storyshare/social"
	Logger "github.com/yifanzhou/storyshare/utils/log"
)

type Server struct {
	Social    *social.Manager
	Engage    *engagement.Manager
	Pipe      *pipeline.Pipeline
	Projector *feed.Projector

	upgrader websocket.Upgrader
}

func NewServer(socialManager *social.Manager, engage *engagement.Manager, pipe *pipeline.Pipeline, projector *feed.Projector) *Server {
	return &Server{
		Social:    socialManager,
		Engage:    engage,
		Pipe:      pipe,
		Projector: projector,
		upgrader: websocket.Upgrader{
			// The REST layer already owns cross-origin policy via the cors
			// middleware; the upgrader doesn't second-guess it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes binds every route onto the given (already authenticated)
// router group.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.POST("/stories", s.createStory)
	r.DELETE("/stories/:id", s.deleteStory)
	r.POST("/stories/:id/like", s.likeStory)
	r.DELETE("/stories/:id/like", s.unlikeStory)
	r.GET("/stories/:id/comments", s.listComments)
	r.POST("/stories/:id/comments", s.addComment)
	r.PUT("/comments/:id", s.updateComment)
	r.DELETE("/comments/:id", s.deleteComment)
	r.POST("/users/:id/follow", s.follow)
	r.DELETE("/users/:id/follow", s.unfollow)
	r.GET("/users/:id/followers", s.followers)
	r.GET("/users/:id/following", s.following)
	r.GET("/profile/:id", s.getProfile)
	r.PUT("/profile", s.updateProfile)
	r.GET("/feed", s.getFeed)
	r.GET("/feed/live", s.liveFeed)
}

func caller(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}

// fail converts a domain error into the JSON error body. All errors are
// caught here at the action boundary; none are retried.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrModeration):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, apperr.ErrEnhancement), errors.Is(err, apperr.ErrImageFetch):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"code": apperr.Code(err), "msg": err.Error()})
}

type createStoryInput struct {
	Content string `json:"content"`
}

func (s *Server) createStory(c *gin.Context) {
	var input createStoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "msg": err.Error()})
		return
	}
	story, err := s.Pipe.Submit(caller(c), input.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (s *Server) deleteStory(c *gin.Context) {
	if err := s.Engage.DeleteStory(c.Param("id"), caller(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) likeStory(c *gin.Context) {
	if err := s.Engage.Like(c.Param("id"), caller(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unlikeStory(c *gin.Context) {
	if err := s.Engage.Unlike(c.Param("id"), caller(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentInput struct {
	Content string `json:"content"`
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.Engage.Comments(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) addComment(c *gin.Context) {
	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "msg": err.Error()})
		return
	}
	comment, err := s.Engage.AddComment(c.Param("id"), caller(c), input.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) updateComment(c *gin.Context) {
	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "msg": err.Error()})
		return
	}
	comment, err := s.Engage.UpdateComment(c.Param("id"), caller(c), input.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.Engage.DeleteComment(c.Param("id"), caller(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) follow(c *gin.Context) {
	if err := s.Social.Follow(caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unfollow(c *gin.Context) {
	if err := s.Social.Unfollow(caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) followers(c *gin.Context) {
	ids, err := s.Social.Followers(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": ids})
}

func (s *Server) following(c *gin.Context) {
	ids, err := s.Social.Following(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": ids})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.Social.GetProfile(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileInput struct {
	DisplayName  string `json:"displayName"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var input updateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "msg": err.Error()})
		return
	}
	profile, err := s.Social.UpdateProfile(caller(c), input.DisplayName, input.Bio, input.ProfileImage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) getFeed(c *gin.Context) {
	snapshot, err := s.Projector.Snapshot()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// liveFeed upgrades to a websocket and streams every feed snapshot to the
// client until it disconnects. The subscription is torn down by the request
// context, same as any other live connection.
func (s *Server) liveFeed(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ch, err := s.Projector.Subscribe(ctx, caller(c))
	if err != nil {
		Logger.Log.Error("fail to subscribe live feed: ", err)
		return
	}

	// Reader goroutine only detects the close handshake.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot := <-ch:
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
