package kv

import (
	"fmt"
	"strings"

	"github.com/jgv115/moneymate-engine/internal/model"
)

// Key prefixes. Every key is scoped by profile and role so prefix scans
// never cross an ownership boundary. Record ids are UUIDs, so the id
// segment never contains the separator; every other caller-supplied
// segment passes through escapeSegment first.
const (
	keyPrefixRecord = "pp:rec:"
	keyPrefixUnique = "pp:uniq:"
	keyPrefixName   = "pp:name:"
	keyPrefixToken  = "pp:tok:"
	keyPrefixTxn    = "txn:"
	keySep          = "#"
)

// escapeSegment percent-encodes the separator and the escape character
// so a # inside a name, external id, or profile id cannot bleed across
// segment boundaries and two distinct (name, externalID) pairs can never
// encode to the same key. The encoding is character-wise, so a raw
// prefix relation survives escaping and index prefix scans stay exact.
func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, keySep, "%23")
}

func recordKey(profileID string, payerPayeeType model.PayerPayeeType, id string) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s%s", keyPrefixRecord, escapeSegment(profileID), keySep, payerPayeeType, keySep, id)
}

// uniqueKey enforces the (profile, type, name, externalID) dedup
// invariant: concurrent creates of the identical pair race on this one
// key inside a serializable transaction.
func uniqueKey(record *model.PayerPayee) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s%s%s%s", keyPrefixUnique,
		escapeSegment(record.ProfileID), keySep, record.Type, keySep,
		escapeSegment(record.Name), keySep, escapeSegment(record.ExternalID))
}

// nameKey indexes the full name for autocomplete prefix scans.
func nameKey(profileID string, payerPayeeType model.PayerPayeeType, name, id string) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s%s%s%s", keyPrefixName,
		escapeSegment(profileID), keySep, payerPayeeType, keySep, escapeSegment(name), keySep, id)
}

// tokenKey indexes one derived n-gram token for find prefix scans.
func tokenKey(profileID string, payerPayeeType model.PayerPayeeType, token, id string) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s%s%s%s", keyPrefixToken,
		escapeSegment(profileID), keySep, payerPayeeType, keySep, escapeSegment(token), keySep, id)
}

func txnKey(profileID string, payerPayeeType model.PayerPayeeType, id string) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s%s", keyPrefixTxn, escapeSegment(profileID), keySep, payerPayeeType, keySep, id)
}

func scopePrefix(prefix, profileID string, payerPayeeType model.PayerPayeeType) []byte {
	return fmt.Appendf(nil, "%s%s%s%s%s", prefix, escapeSegment(profileID), keySep, payerPayeeType, keySep)
}

// searchPrefix narrows a scoped index scan to keys whose indexed value
// (name or token) begins with fragment. The fragment gets the same
// escaping as the indexed value did at write time.
func searchPrefix(prefix, profileID string, payerPayeeType model.PayerPayeeType, fragment string) []byte {
	return append(scopePrefix(prefix, profileID, payerPayeeType), escapeSegment(fragment)...)
}
