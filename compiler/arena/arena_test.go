package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocAndAccess(t *testing.T) {
	a := NewArena(16, "app")

	h, err := Alloc[int](a, 4)
	require.NoError(t, err)
	require.Equal(t, 4, h.Len())

	require.NoError(t, h.Set(2, 99))

	v, err := h.At(2)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestOutOfRange(t *testing.T) {
	a := NewArena(16, "app")

	h, err := Alloc[int](a, 2)
	require.NoError(t, err)

	_, err = h.At(5)
	require.Error(t, err)
	require.ErrorAs(t, err, &ErrOutOfRange{})
}

func TestArenaFull(t *testing.T) {
	a := NewArena(4, "app")

	_, err := Alloc[int](a, 8)
	require.Error(t, err)
	require.ErrorAs(t, err, &ErrArenaFull{})
}

func TestRangeMismatch(t *testing.T) {
	a := NewArena(16, "app")

	h, err := Alloc[int](a, 2)
	require.NoError(t, err)

	a.EnterRange("worker")

	_, err = h.At(0)
	require.Error(t, err)
	require.ErrorAs(t, err, &ErrRangeMismatch{})

	a.LeaveRange()

	_, err = h.At(0)
	require.NoError(t, err)
}

func TestResetInvalidatesOffsetButNotChecks(t *testing.T) {
	a := NewArena(4, "app")

	_, err := Alloc[int](a, 4)
	require.NoError(t, err)

	_, err = Alloc[int](a, 1)
	require.Error(t, err)

	a.Reset()

	_, err = Alloc[int](a, 4)
	require.NoError(t, err)
}
