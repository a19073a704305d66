package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokenPrefersEnv(t *testing.T) {
	t.Setenv("REDISTQ_TEST_TOKEN", "from-env")

	tok, err := Token("REDISTQ_TEST_TOKEN", "PS1")
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
}

func TestTokenFallsBackToKeyring(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StoreToken("PS1", "from-keyring"))

	t.Setenv("REDISTQ_TEST_TOKEN", "")
	tok, err := Token("REDISTQ_TEST_TOKEN", "PS1")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", tok)
}

func TestTokenErrorWhenNowhere(t *testing.T) {
	keyring.MockInit()
	t.Setenv("REDISTQ_TEST_TOKEN", "")

	_, err := Token("REDISTQ_TEST_TOKEN", "NOPE")
	assert.Error(t, err)
}
