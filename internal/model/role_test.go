package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "admin", want: RoleAdmin},
		{in: "user", want: RoleUser},
		{in: "Admin", wantErr: true},
		{in: "superuser", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasswordResetToken_Redeemable(t *testing.T) {
	expires := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)
	token := &PasswordResetToken{ExpiresAt: expires}

	assert.True(t, token.Redeemable(expires.Add(-time.Second)))
	assert.False(t, token.Redeemable(expires), "expiry instant is not redeemable")
	assert.False(t, token.Redeemable(expires.Add(time.Minute)))

	token.Used = true
	assert.False(t, token.Redeemable(expires.Add(-time.Minute)))
}

func TestPasswordResetToken_RedeemableAcrossZones(t *testing.T) {
	expires := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)
	token := &PasswordResetToken{ExpiresAt: expires}

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.False(t, token.Redeemable(expires.In(tokyo)))
	assert.True(t, token.Redeemable(expires.Add(-time.Second).In(tokyo)))
}
