package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"DF-PROPOSAL/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ownerKey = "owner_id"

// RequireAPIKey authenticates authors by bearer API key and stores the owner
// id the key maps to in the request context.
func RequireAPIKey(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Missing API key"})
			return
		}

		ownerID, ok := lookupKey(keys, token)
		if !ok {
			log.Warn().Str("key", logging.Fingerprint(token)).Str("ip", c.ClientIP()).Msg("Rejected API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Invalid API key"})
			return
		}

		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

// lookupKey compares token against every configured key in constant time.
func lookupKey(keys map[string]string, token string) (string, bool) {
	var ownerID string
	matched := false
	for key, owner := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			ownerID = owner
			matched = true
		}
	}
	return ownerID, matched
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
