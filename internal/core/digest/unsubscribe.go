package digest

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	perr "ghdigest/internal/platform/errors"
)

// LinkTTL is how long an unsubscribe link stays valid
const LinkTTL = 31536000 * time.Second

// Signer issues and checks stateless unsubscribe links
type Signer struct {
	Secret []byte
}

// Sign is hex(HMAC-SHA512(secret, id+expiry))
func (s Signer) Sign(id string, expiry int64) string {
	m := hmac.New(sha512.New, s.Secret)
	m.Write([]byte(id + strconv.FormatInt(expiry, 10)))
	return hex.EncodeToString(m.Sum(nil))
}

// URL builds https://<domain>/unsubscribe?id=&expiry=&v=
func (s Signer) URL(domain, id string, now time.Time) string {
	expiry := now.Add(LinkTTL).Unix()
	return "https://" + domain + "/unsubscribe?id=" + url.QueryEscape(id) +
		"&expiry=" + strconv.FormatInt(expiry, 10) + "&v=" + s.Sign(id, expiry)
}

// Verify checks mac in constant time and that now has not passed expiry
func (s Signer) Verify(id string, expiry int64, mac string, now time.Time) error {
	got, err := hex.DecodeString(mac)
	if err != nil {
		return perr.Forbiddenf("malformed signature")
	}
	want, _ := hex.DecodeString(s.Sign(id, expiry))
	if !hmac.Equal(got, want) {
		return perr.Forbiddenf("signature mismatch")
	}
	if now.Unix() > expiry {
		return perr.Forbiddenf("link expired")
	}
	return nil
}
