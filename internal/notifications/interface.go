package notifications

import "github.com/threadscout/engagement-bot/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendDigest(digest *models.Digest) error
}
