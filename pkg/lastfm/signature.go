package lastfm

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// signRequest produces the api_sig value for a parameter set.
//
// Per the Last.fm authentication spec: order the parameters
// alphabetically by key, concatenate key and value for each, append the
// shared secret, and take the hex MD5 of the whole string. The output
// depends only on the parameter contents, never on map iteration order.
func signRequest(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var plain strings.Builder
	for _, k := range keys {
		plain.WriteString(k)
		plain.WriteString(params[k])
	}
	plain.WriteString(secret)

	sum := md5.Sum([]byte(plain.String()))
	return hex.EncodeToString(sum[:])
}
