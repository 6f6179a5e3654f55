package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextErrorsUnwrapToSentinels(t *testing.T) {
	t.Run("NotReproducibleError", func(t *testing.T) {
		err := &NotReproducibleError{
			Archive:      "build/app-1.0.jar",
			EntryName:    "a.txt",
			EntryTime:    2000,
			ExpectedTime: 4000,
		}
		require.ErrorIs(t, err, ErrNotReproducible)
		require.Contains(t, err.Error(), "a.txt")
		require.Contains(t, err.Error(), "build/app-1.0.jar")
	})

	t.Run("UnexpectedDataError", func(t *testing.T) {
		err := &UnexpectedDataError{
			Archive:      "build/app-1.0.jar",
			Offset:       42,
			Expected:     []byte{1, 2, 3, 4},
			Actual:       []byte{5, 6, 7, 8},
			ExpectedText: "2023-08-01 00:00:00",
			ActualText:   "2023-09-07 01:38:34",
		}
		require.ErrorIs(t, err, ErrUnexpectedData)
		require.Contains(t, err.Error(), "2023-08-01 00:00:00")
	})

	t.Run("NotOneToOneError", func(t *testing.T) {
		err := &NotOneToOneError{
			MissingInBuild:     []string{"b-1.0.jar"},
			MissingInLastBuild: []string{"c-1.0.jar"},
		}
		require.ErrorIs(t, err, ErrNotOneToOne)
		require.Contains(t, err.Error(), "missing in build: b-1.0.jar")
		require.Contains(t, err.Error(), "missing in last build: c-1.0.jar")
	})
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("build/app-1.0.jar: entry %q: %w", "a.txt", ErrExtendedTimestamp)
	require.ErrorIs(t, wrapped, ErrExtendedTimestamp)
	require.True(t, errors.Is(fmt.Errorf("outer: %w", wrapped), ErrExtendedTimestamp))
}
