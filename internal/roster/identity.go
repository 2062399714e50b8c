package roster

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// documentNamespace is the fixed UUIDv5 namespace for document identities.
// Changing it invalidates every stored point ID, forcing a full reindex.
var documentNamespace = uuid.MustParse("9f2c1a44-7d6e-4b1b-9c70-5a2f0d8e3b61")

// DocumentID derives the stable point identifier for a payload. The natural
// key is the UPN when present, else the display name, else a canonical
// serialization of all payload fields sorted by name. The key is hashed into
// a name-based UUID so re-ingesting unchanged source data updates points in
// place instead of duplicating them.
//
// Two records with no distinguishing fields collide; they are
// indistinguishable, so the collision is accepted.
func DocumentID(payload map[string]string) string {
	key := payload[FieldUPN]
	if key == "" {
		key = payload[FieldDisplayName]
	}
	if key == "" {
		key = canonicalSerialization(payload)
	}
	return uuid.NewSHA1(documentNamespace, []byte(key)).String()
}

func canonicalSerialization(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(payload[k])
		b.WriteString("\n")
	}
	return b.String()
}
