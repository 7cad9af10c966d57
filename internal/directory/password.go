package directory

import (
	"unicode/utf16"
)

// EncodePassword encodes a password for the Active Directory unicodePwd
// attribute: the password wrapped in ASCII double quotes, encoded as UTF-16
// little-endian. The directory rejects any other encoding, so this must be
// reproduced bit for bit.
func EncodePassword(password string) []byte {
	quoted := `"` + password + `"`

	units := utf16.Encode([]rune(quoted))

	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}

	return out
}
