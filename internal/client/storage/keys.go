package storage

// Storage keys. Values are JSON strings.
const (
	KeyUsers      = "@ediary/users"
	KeyActiveUser = "@ediary/activeUser"
	KeySession    = "@ediary/session"

	entriesPrefix = "@ediary/entries/"
	trashPrefix   = "@ediary/trash/"
	pendingPrefix = "@ediary/pending/"
)

// EntriesKey holds the active entries of identity.
func EntriesKey(identity string) string { return entriesPrefix + identity }

// TrashKey holds the trashed entries of identity.
func TrashKey(identity string) string { return trashPrefix + identity }

// PendingKey holds the ids of entries of identity that exist only in local storage.
func PendingKey(identity string) string { return pendingPrefix + identity }
