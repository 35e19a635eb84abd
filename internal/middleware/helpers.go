// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetActor returns the authenticated staff id.
func GetActor(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxActor)
	if !exists {
		return "", false
	}
	actor, ok := v.(string)
	return actor, ok && actor != ""
}

// MustGetActor gets the actor from context or panics
func MustGetActor(c *gin.Context) string {
	actor, ok := GetActor(c)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get(ctxRoles)
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}
	return rolesList
}

func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin") || HasRole(c, "super_admin")
}
