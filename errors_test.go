package custody_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/custody"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code custody.Code
	}{
		{custody.ErrInvalidAmount, 101},
		{custody.ErrInsufficientBalance, 102},
		{custody.ErrTokenNotSupported, 103},
		{custody.ErrWalletPaused, 104},
		{custody.ErrInvalidRecipient, 105},
		{custody.ErrInvalidFeeRate, 107},
		{custody.ErrNotOwner, 110},
		{custody.ErrInvalidMinDeposit, 111},
		{custody.ErrInvalidMaxWithdraw, 112},
		{custody.ErrTransferFailed, 113},
		{custody.ErrAlreadyPaused, 124},
		{custody.ErrNotPaused, 125},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.code, custody.CodeOf(tt.err))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			require.Equal(t, tt.code, custody.CodeOf(wrapped))
			require.ErrorIs(t, wrapped, tt.err)
		})
	}

	require.Zero(t, custody.CodeOf(errors.New("plain")))
	require.Zero(t, custody.CodeOf(custody.ErrNotFound))
	require.Zero(t, custody.CodeOf(nil))
}

func TestErrorClassification(t *testing.T) {
	require.True(t, custody.IsAuthorization(custody.ErrNotOwner))
	require.False(t, custody.IsAuthorization(custody.ErrWalletPaused))

	for _, err := range []error{
		custody.ErrInvalidAmount,
		custody.ErrInvalidMinDeposit,
		custody.ErrInvalidMaxWithdraw,
		custody.ErrInvalidFeeRate,
		custody.ErrInvalidRecipient,
	} {
		require.True(t, custody.IsPolicyViolation(err), err.Error())
	}

	for _, err := range []error{custody.ErrWalletPaused, custody.ErrAlreadyPaused, custody.ErrNotPaused} {
		require.True(t, custody.IsStateGuard(err), err.Error())
	}

	require.True(t, custody.IsIneligibleAsset(custody.ErrTokenNotSupported))
	require.True(t, custody.IsCapacity(custody.ErrInsufficientBalance))

	cause := errors.New("port down")
	ext := fmt.Errorf("%w: %w", custody.ErrTransferFailed, cause)
	require.True(t, custody.IsExternal(ext))
	require.ErrorIs(t, ext, cause)
	require.False(t, custody.IsCapacity(ext))
}
