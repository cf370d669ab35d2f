package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/rosterkeeper/internal/common"
)

// SessionTokenBytes is the entropy of a session token; the token itself is
// the hex encoding, twice as long.
const SessionTokenBytes = 32

// NewSessionToken returns an unguessable bearer token.
func NewSessionToken() (string, error) {
	return common.MakeRandHexString(SessionTokenBytes)
}

// NewTemporaryPassword returns a random one-time password such as
// "Tmp-9f2c41ab-07". It always contains upper- and lowercase letters and
// digits, so it passes the password complexity rule.
func NewTemporaryPassword() (string, error) {
	body, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	n := int(common.GenerateRandByteArray(1)[0]) % 100
	return fmt.Sprintf("Tmp-%s-%02d", body, n), nil
}
