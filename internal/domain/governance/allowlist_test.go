package governance

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		entryType  EntryType
		want       string
		wantErr    bool
	}{
		{"ipv4", "192.168.1.10", EntryTypeDeviceIP, "192.168.1.10", false},
		{"ipv4 with spaces", "  10.0.0.1 ", EntryTypeDeviceIP, "10.0.0.1", false},
		{"ipv6 canonicalized", "2001:0db8::0001", EntryTypeDeviceIP, "2001:db8::1", false},
		{"bad ip", "999.1.1.1", EntryTypeDeviceIP, "", true},
		{"hostname as ip", "example.com", EntryTypeDeviceIP, "", true},
		{"mac colons lowercase", "aa:bb:cc:dd:ee:ff", EntryTypeMAC, "AA:BB:CC:DD:EE:FF", false},
		{"mac dashes", "aa-bb-cc-dd-ee-ff", EntryTypeMAC, "AA:BB:CC:DD:EE:FF", false},
		{"mac too short", "aa:bb:cc:dd:ee", EntryTypeMAC, "", true},
		{"mac bad hex", "aa:bb:cc:dd:ee:gg", EntryTypeMAC, "", true},
		{"user kept as-is", "alice@corp", EntryTypeUser, "alice@corp", false},
		{"user too long", strings.Repeat("a", 101), EntryTypeUser, "", true},
		{"empty", "", EntryTypeUser, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentifier(tt.identifier, tt.entryType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowlistEntry_Lifecycle(t *testing.T) {
	entry, err := NewAllowlistEntry("192.168.1.10", EntryTypeDeviceIP, "build agent", "CI runner", "admin", nil)
	require.NoError(t, err)

	now := time.Now()
	assert.True(t, entry.IsEffective(now))

	entry.Deactivate()
	assert.False(t, entry.Active())
	assert.False(t, entry.IsEffective(now))

	entry.Reactivate("", "re-enabled after audit", nil)
	assert.True(t, entry.Active())
	assert.Equal(t, "build agent", entry.Name(), "empty name keeps existing")
	assert.Equal(t, "re-enabled after audit", entry.Reason())
}

func TestAllowlistEntry_Expiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	entry, err := NewAllowlistEntry("alice", EntryTypeUser, "alice", "temp access", "admin", &past)
	require.NoError(t, err)

	assert.True(t, entry.Active())
	assert.True(t, entry.IsExpired(time.Now()))
	assert.False(t, entry.IsEffective(time.Now()))
}

func TestNewAllowlistEntry_InvalidType(t *testing.T) {
	_, err := NewAllowlistEntry("x", EntryType("serial"), "", "", "admin", nil)
	assert.Error(t, err)
}
