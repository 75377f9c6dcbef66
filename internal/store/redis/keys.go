package redis

import "strings"

const (
	keyPrefix = "wedding:"

	// OfficialCollection holds the admin-curated timeline.
	OfficialCollection = "timeline"

	KeyRemindersEnabled = keyPrefix + "settings:reminders_enabled"
	KeyNotifiedLedger   = keyPrefix + "settings:notified_events"
	keyPrefixClaim      = keyPrefix + "reminder:claim:"
)

// PersonalCollection is the private itinerary path of one user.
func PersonalCollection(userID string) string {
	return "users/" + userID + "/itinerary"
}

// DocsKey is the hash of id -> JSON document for a collection.
func DocsKey(path string) string { return keyPrefix + "docs:" + path }

// OrderKey is the sorted set of ids scored by fullDate (unix ms).
func OrderKey(path string) string { return keyPrefix + "order:" + path }

// ChangesChannel is the pub/sub channel announcing writes to a collection.
func ChangesChannel(path string) string { return keyPrefix + "changes:" + path }

// ClaimKey guards a single reminder against concurrent job runs.
func ClaimKey(eventID string) string { return keyPrefixClaim + eventID }

// validCollection rejects paths that could escape their key namespace.
func validCollection(path string) bool {
	return path != "" && !strings.ContainsAny(path, " *?[]")
}
