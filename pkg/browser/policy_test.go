package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLPolicyEmptyAllowsEverything(t *testing.T) {
	policy, err := NewURLPolicy(nil)
	require.NoError(t, err)
	assert.NoError(t, policy.Check("https://anywhere.example.com/login"))
}

func TestURLPolicyBlocksHostPattern(t *testing.T) {
	policy, err := NewURLPolicy([]string{"*.internal.example.com"})
	require.NoError(t, err)

	assert.Error(t, policy.Check("https://admin.internal.example.com/panel"))
	assert.NoError(t, policy.Check("https://www.example.com"))
}

func TestURLPolicyBlocksFullURLPattern(t *testing.T) {
	policy, err := NewURLPolicy([]string{"https://example.com/admin/*"})
	require.NoError(t, err)

	assert.Error(t, policy.Check("https://example.com/admin/users"))
	assert.NoError(t, policy.Check("https://example.com/shop"))
}

func TestURLPolicyIsCaseInsensitive(t *testing.T) {
	policy, err := NewURLPolicy([]string{"*.blocked.example.com"})
	require.NoError(t, err)

	assert.Error(t, policy.Check("https://WWW.Blocked.Example.COM/page"))
}

func TestURLPolicyRejectsBadPattern(t *testing.T) {
	_, err := NewURLPolicy([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestURLPolicyErrorNamesPattern(t *testing.T) {
	policy, err := NewURLPolicy([]string{"*.blocked.example.com"})
	require.NoError(t, err)

	checkErr := policy.Check("https://a.blocked.example.com")
	require.Error(t, checkErr)
	assert.Contains(t, checkErr.Error(), "*.blocked.example.com")
}
