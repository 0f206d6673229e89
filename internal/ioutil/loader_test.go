package ioutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAccountsExtractsHandleFromURLAndDedups(t *testing.T) {
	path := writeTemp(t, "accounts.txt", "https://x.com/acme\n\nhttps://www.twitter.com/ACME\n# comment\nhttps://twitter.com/other_co/with_replies\n")
	accounts, err := LoadAccounts(path)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acme", accounts[0].Handle)
	assert.Equal(t, "https://x.com/acme", accounts[0].URL)
	assert.Equal(t, "other_co", accounts[1].Handle)
	assert.Equal(t, "https://twitter.com/other_co/with_replies", accounts[1].URL)
}

func TestLoadAccountsRejectsInvalidHandle(t *testing.T) {
	path := writeTemp(t, "accounts.txt", "https://x.com/not-a-valid-handle!\n")
	_, err := LoadAccounts(path)
	assert.Error(t, err)
}

func TestLoadAccountsRejectsNonAccountHost(t *testing.T) {
	path := writeTemp(t, "accounts.txt", "https://example.com/acme\n")
	_, err := LoadAccounts(path)
	assert.Error(t, err)
}

func TestLoadAccountsRejectsMissingScheme(t *testing.T) {
	path := writeTemp(t, "accounts.txt", "x.com/acme\n")
	_, err := LoadAccounts(path)
	assert.Error(t, err)
}

func TestLoadKeywordsNormalizesSeparatorsAndDedups(t *testing.T) {
	path := writeTemp(t, "keywords.txt", "launch,day\nlaunch+day\nlaunch   day\nrollout\n")
	keywords, err := LoadKeywords(path)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, "launch day", keywords[0].Phrase)
	assert.Equal(t, "rollout", keywords[1].Phrase)
}
