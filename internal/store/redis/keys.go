package redis

import (
	"strings"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

const (
	// KeyPrefixLayer is the prefix for layer keys
	KeyPrefixLayer = "geoinv:layer:"
	// KeyAllLayers is the key for the set of all layer ids
	KeyAllLayers = "geoinv:layers:all"
	// KeyEvents is the capped list of recent outcome events
	KeyEvents = "geoinv:events"
	// KeyLastRun holds the summary of the last completed run
	KeyLastRun = "geoinv:run:last"
)

var serverEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// LayerID is the member stored in the layer set: "{server}:{name}".
// The server part is escaped so its first ':' always ends it.
// Layer names may contain ':' themselves, so ids are never split back.
func LayerID(k domain.LayerKey) string {
	return serverEscaper.Replace(k.Server) + ":" + k.Name
}

// LayerKey returns the Redis key for a layer
func LayerKey(k domain.LayerKey) string {
	return KeyPrefixLayer + LayerID(k)
}

// LayerKeyFromID returns the Redis key for a layer set member
func LayerKeyFromID(id string) string {
	return KeyPrefixLayer + id
}
