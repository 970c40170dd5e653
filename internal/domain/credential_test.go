package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "...wxyz", MaskKey("AIzaSy-abcdefwxyz"))
	assert.Equal(t, "****", MaskKey("abcd"))
	assert.Equal(t, "", MaskKey(""))
}

func TestCredential_StringIsMasked(t *testing.T) {
	c := Credential{Value: "secret-key-1234", Origin: KeyOriginSystem}
	assert.Equal(t, "...1234", fmt.Sprintf("%v", c))
	assert.NotContains(t, fmt.Sprintf("%s", c), "secret")
}

func TestParseCredentialList(t *testing.T) {
	creds := ParseCredentialList(" key-a, ,key-b,key-a,, key-c ", KeyOriginSystem)

	assert.Len(t, creds, 3)
	assert.Equal(t, "key-a", creds[0].Value)
	assert.Equal(t, "key-b", creds[1].Value)
	assert.Equal(t, "key-c", creds[2].Value)
	for _, c := range creds {
		assert.Equal(t, KeyOriginSystem, c.Origin)
	}

	assert.Empty(t, ParseCredentialList("", KeyOriginSystem))
}

func TestSanitizeUserCredentials(t *testing.T) {
	creds := SanitizeUserCredentials([]string{"", "short", "  user-key-0001  ", "user-key-0001", "user-key-0002"}, 10)

	assert.Len(t, creds, 2)
	assert.Equal(t, "user-key-0001", creds[0].Value)
	assert.Equal(t, KeyOriginUser, creds[0].Origin)
	assert.Equal(t, "user-key-0002", creds[1].Value)
}
