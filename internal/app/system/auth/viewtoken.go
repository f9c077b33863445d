package auth

import (
	"errors"
	"time"

	"github.com/gorilla/securecookie"
)

const viewTokenName = "board-view"

// ErrBadViewToken is returned for tokens that fail verification.
var ErrBadViewToken = errors.New("invalid view token")

// ViewClaims identify which user opened which board view.
type ViewClaims struct {
	ViewID  string
	BoardID string
	UserID  string
}

// ViewTokens signs and verifies the view id a board page hands to its
// event stream and action posts.
type ViewTokens struct {
	sc *securecookie.SecureCookie
}

// NewViewTokens returns a signer keyed by hashKey. Tokens expire after
// maxAge.
func NewViewTokens(hashKey []byte, maxAge time.Duration) *ViewTokens {
	sc := securecookie.New(hashKey, nil)
	sc.MaxAge(int(maxAge.Seconds()))
	return &ViewTokens{sc: sc}
}

// Issue returns a signed token for c.
func (t *ViewTokens) Issue(c ViewClaims) (string, error) {
	return t.sc.Encode(viewTokenName, map[string]string{
		"v": c.ViewID,
		"b": c.BoardID,
		"u": c.UserID,
	})
}

// Parse verifies token and returns its claims.
func (t *ViewTokens) Parse(token string) (ViewClaims, error) {
	var m map[string]string
	if err := t.sc.Decode(viewTokenName, token, &m); err != nil {
		return ViewClaims{}, ErrBadViewToken
	}
	c := ViewClaims{ViewID: m["v"], BoardID: m["b"], UserID: m["u"]}
	if c.ViewID == "" || c.BoardID == "" {
		return ViewClaims{}, ErrBadViewToken
	}
	return c, nil
}
