package ttlpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestResolveExpiryPlainNamespaceNoExplicit(t *testing.T) {
	now := time.Now()
	exp, err := ResolveExpiry(now, Policy{}, nil)
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestResolveExpiryPlainNamespaceExplicitFails(t *testing.T) {
	now := time.Now()
	_, err := ResolveExpiry(now, Policy{}, intPtr(60))
	require.Error(t, err)
}

func TestResolveExpiryTTLNamespaceDefault(t *testing.T) {
	now := time.Now()
	exp, err := ResolveExpiry(now, Policy{DefaultSeconds: intPtr(30)}, nil)
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.WithinDuration(t, now.Add(30*time.Second), *exp, time.Millisecond)
}

func TestResolveExpiryTTLNamespaceExplicitOverride(t *testing.T) {
	now := time.Now()
	exp, err := ResolveExpiry(now, Policy{DefaultSeconds: intPtr(30)}, intPtr(5))
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.WithinDuration(t, now.Add(5*time.Second), *exp, time.Millisecond)
}

func TestResolveExpiryRejectsNonPositive(t *testing.T) {
	now := time.Now()
	_, err := ResolveExpiry(now, Policy{DefaultSeconds: intPtr(30)}, intPtr(0))
	require.Error(t, err)
	_, err = ResolveExpiry(now, Policy{DefaultSeconds: intPtr(-1)}, nil)
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Second)
	assert.False(t, Expired(nil, now))
	assert.True(t, Expired(&past, now))
	assert.True(t, Expired(&now, now)) // exactly now counts as expired
	assert.False(t, Expired(&future, now))
}
