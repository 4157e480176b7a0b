package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/chirpsocial/backend/internal/models"
)

// currentUser pulls the authenticated user placed on the context by the
// auth middleware. Writes a 401 and returns nil when missing.
func currentUser(c *gin.Context) *models.User {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return nil
	}
	return user.(*models.User)
}

func parseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// paginationParams reads limit/offset query params with sane bounds
func paginationParams(c *gin.Context) (limit, offset int) {
	limit = parseInt(c.DefaultQuery("limit", "20"), 20)
	offset = parseInt(c.DefaultQuery("offset", "0"), 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// extractHashtags extracts lowercase #hashtags from post content
func extractHashtags(content string) []string {
	var hashtags []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "#") || len(word) < 2 {
			continue
		}
		tag := strings.TrimPrefix(word, "#")
		tag = strings.TrimRight(tag, ".,!?;:")
		tag = strings.ToLower(tag)

		if tag == "" || !isAlphanumeric(tag) {
			continue
		}
		if !seen[tag] {
			seen[tag] = true
			hashtags = append(hashtags, tag)
		}
	}
	return hashtags
}

// extractMentions extracts @username mentions from content
func extractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		username := strings.TrimPrefix(word, "@")
		username = strings.TrimRight(username, ".,!?;:")
		username = strings.ToLower(username)

		if !seen[username] && len(username) >= 3 && len(username) <= 30 {
			seen[username] = true
			mentions = append(mentions, username)
		}
	}
	return mentions
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func isValidImageFile(filename string) bool {
	ext := strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
