package models

import (
	"net/url"
	"strings"
)

const avatarFallbackBase = "https://api.dicebear.com/7.x/thumbs/svg?seed="

// ResolveAvatarURL returns avatarURL, or a deterministic generated image for seed when it is blank.
func ResolveAvatarURL(avatarURL, seed string) string {
	if trimmed := strings.TrimSpace(avatarURL); trimmed != "" {
		return trimmed
	}
	return avatarFallbackBase + url.QueryEscape(seed)
}
