package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/messdesk/messdesk/internal/ledger"
)

// getUserID extracts the user ID from gin context.
func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}

// userIdentity builds the caller identity for ledger operations from the
// authenticated user in context.
func userIdentity(c *gin.Context) ledger.Identity {
	id := getUserID(c)
	return ledger.Identity{
		UserID:        id,
		Authenticated: id != 0,
		Admin:         false,
	}
}
