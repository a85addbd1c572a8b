package auth

import "strings"

// PseudoSessionPrefix marks identities derived from a bearer token rather
// than a stored session. Store ids are raw base64url and can never contain
// a colon, so the prefix keeps the two id spaces disjoint.
const PseudoSessionPrefix = "jwt:"

// Identity is the resolved caller for one request. It contains facts only,
// no decisions; downstream guards pick their verification rule from it.
type Identity struct {
	SessionID string // store id, or PseudoSessionPrefix-tagged for fallback
	UserID    string
	CSRFToken string // stored secret; empty on the fallback path
	RawBearer string // original bearer token; set only on the fallback path
	Bypass    bool   // test/bypass mode resolved for this request
}

// IsFallback reports whether this identity came from the bearer-token path
// rather than a stored session.
func (i *Identity) IsFallback() bool {
	return strings.HasPrefix(i.SessionID, PseudoSessionPrefix)
}
