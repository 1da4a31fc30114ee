package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerErrorMatchesKind(t *testing.T) {
	err := ProposalNotFound(7)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrAlreadyVoted)
	require.Equal(t, "not found: proposal 7", err.Error())

	wrapped := fmt.Errorf("vote: %w", ErrAlreadyVoted)
	require.ErrorIs(t, wrapped, ErrAlreadyVoted)
	code, ok := ErrorCode(wrapped)
	require.True(t, ok)
	require.Equal(t, uint32(KindAlreadyVoted), code)
}

func TestStorageFailure(t *testing.T) {
	require.NoError(t, StorageFailure("get", nil))

	cause := errors.New("disk gone")
	err := StorageFailure("get 70", cause)
	require.ErrorIs(t, err, ErrStorageFailure)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "storage failure: get 70: disk gone", err.Error())

	// ledger errors pass through unchanged
	require.Equal(t, ErrProposalNotActive, StorageFailure("get", ErrProposalNotActive))
}

func TestErrorCodes(t *testing.T) {
	for _, c := range []struct {
		err  error
		code uint32
	}{
		{ErrStorageFailure, 1},
		{ErrNotRegistered, 2},
		{ErrProposalNotActive, 3},
		{ErrAlreadyVoted, 4},
		{ErrAxelarVerificationFailed, 5},
		{ErrNotFound, 6},
	} {
		code, ok := ErrorCode(c.err)
		require.True(t, ok)
		require.Equal(t, c.code, code, c.err.Error())
	}
	_, ok := ErrorCode(errors.New("other"))
	require.False(t, ok)
}
