package part

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCycleTransitions(t *testing.T) {
	cases := []struct {
		from, to CycleState
		ok       bool
	}{
		{CycleEdition, CycleRelease, true},
		{CycleEdition, CycleCancelled, true},
		{CycleRelease, CycleObsolete, true},
		{CycleRelease, CycleEdition, false},
		{CycleRelease, CycleCancelled, false},
		{CycleObsolete, CycleCancelled, false},
		{CycleObsolete, CycleEdition, false},
		{CycleCancelled, CycleEdition, false},
		{CycleEdition, CycleObsolete, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateTransitionError(t *testing.T) {
	err := validateTransition(CycleRelease, CycleEdition)
	var invalid *InvalidCycleTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, CycleRelease, invalid.From)
	require.Equal(t, CycleEdition, invalid.To)
}
