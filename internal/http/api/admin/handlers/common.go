package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/messdesk/messdesk/internal/ledger"
)

// getAdminID extracts the admin ID from gin context.
func getAdminID(c *gin.Context) uint64 {
	val, exists := c.Get("adminID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}

// adminIdentity builds the caller identity for ledger operations from the
// authenticated admin in context.
func adminIdentity(c *gin.Context) ledger.Identity {
	id := getAdminID(c)
	return ledger.Identity{
		UserID:        id,
		Authenticated: id != 0,
		Admin:         id != 0,
	}
}

// parseIDParam parses the :id route parameter.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		return 0, false
	}
	return id, true
}
