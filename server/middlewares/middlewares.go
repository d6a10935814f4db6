package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yifanzhou/storyshare/identity"
	"github.com/yifanzhou/storyshare/social"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gorm.io/gorm"
)

var (
	// provider is the thread safe client that performs user authorization
	// based on the access token. Before using any middleware, make sure it's
	// initialized correctly via Setup.
	provider identity.Provider
)

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup(p identity.Provider) {
	if p == nil {
		// Abort directly if the provider isn't set up, which is crucial for
		// server side authorization.
		Logger.Log.Fatal("identity provider must not be nil")
	}
	provider = p
}

// Auth fetches the caller's access token in the http header, looking for
// field "token". It resolves the token into an identity, bootstraps the user
// and profile records on first session, and adds a field "sub" storing the
// user's id. It rejects with 401 on token not provided or token invalid
// (wrong token or expired).
func Auth(db *gorm.DB, socialManager *social.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("token")
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": "auth",
				"msg":  "empty access token",
			})
			c.Abort()
			return
		}

		id, err := provider.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": "auth",
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}

		// First authenticated session creates the user record and the
		// default profile. Both calls are idempotent, so running them on
		// every request is safe.
		user, err := identity.EnsureUser(db, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code": "persistence",
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}
		if _, err := socialManager.EnsureProfile(user.Id, user.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code": "persistence",
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}

		// Successfully validated the token, replace the header field "token"
		// with the user's sub (id).
		c.Request.Header.Del("token")
		c.Request.Header.Set("sub", id.UserID)

		// before request
		c.Next()
	}
}
