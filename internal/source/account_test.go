package source

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		acct    Account
		wantErr string
	}{
		{
			name: "max with username and password",
			acct: Account{Kind: KindMax, Credentials: Credentials{Username: "u", Password: "p"}},
		},
		{
			name:    "hapoalim needs userCode",
			acct:    Account{Kind: KindHapoalim, Credentials: Credentials{Username: "u", Password: "p"}},
			wantErr: "missing credentials: userCode",
		},
		{
			name:    "isracard needs id and card digits",
			acct:    Account{Kind: KindIsracard, Label: "family", Credentials: Credentials{Password: "p"}},
			wantErr: `account "family" (isracard): missing credentials: id, card6Digits`,
		},
		{
			name:    "unknown kind",
			acct:    Account{Kind: "piggybank"},
			wantErr: `unknown kind "piggybank"`,
		},
		{
			name: "oneZero with token",
			acct: Account{Kind: KindOneZero, Credentials: Credentials{Email: "a@b.c", Password: "p", OTPLongTermToken: "tok"}},
		},
		{
			name:    "oneZero without otp source",
			acct:    Account{Kind: KindOneZero, Credentials: Credentials{Email: "a@b.c", Password: "p"}},
			wantErr: "phoneNumber|otpLongTermToken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.acct.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAccountName(t *testing.T) {
	assert.Equal(t, "max", Account{Kind: KindMax}.Name())
	assert.Equal(t, "family", Account{Kind: KindMax, Label: "family"}.Name())
}

func TestAccountString_HidesCredentials(t *testing.T) {
	acct := Account{Kind: KindMax, Credentials: Credentials{Username: "u", Password: "secret"}}
	assert.NotContains(t, fmt.Sprintf("%v", acct), "secret")
}

func TestKinds_Sorted(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 18)
	assert.Equal(t, KindAmex, kinds[0])
}
