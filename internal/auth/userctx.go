package auth

import "github.com/gin-gonic/gin"

const userContextKey = "authUser"

// User is the authenticated identity attached to a request.
type User struct {
	DBID        int64
	FirebaseUID string
	Email       string
}

func WithUser(c *gin.Context, u User) {
	c.Set(userContextKey, u)
}

func CurrentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}

// UserDBID returns the database id of the authenticated user.
func UserDBID(c *gin.Context) (int64, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		return 0, false
	}
	return u.DBID, true
}
