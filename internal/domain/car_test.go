package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCarClass(t *testing.T) {
	t.Run("Canonical value", func(t *testing.T) {
		c, err := ParseCarClass("B")
		assert.NoError(t, err)
		assert.Equal(t, CarClassB, c)
	})

	t.Run("Lowercase with spaces", func(t *testing.T) {
		c, err := ParseCarClass("  s ")
		assert.NoError(t, err)
		assert.Equal(t, CarClassS, c)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseCarClass("   ")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "car class is required")
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseCarClass("Z")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "[A, B, C, D, E, F, S]")
	})
}

func TestCarClass_Rank(t *testing.T) {
	assert.Equal(t, 0, CarClassA.Rank())
	assert.Equal(t, 6, CarClassS.Rank())
	assert.Less(t, CarClassC.Rank(), CarClassD.Rank())
	assert.Equal(t, -1, CarClass("X").Rank())
	assert.False(t, CarClass("").Valid())
}

func TestClassesFrom(t *testing.T) {
	t.Run("Lowest class climbs through all", func(t *testing.T) {
		path, err := ClassesFrom(CarClassA)
		require.NoError(t, err)
		assert.Equal(t, AllCarClasses(), path)
	})

	t.Run("Middle class is inclusive", func(t *testing.T) {
		path, err := ClassesFrom(CarClassE)
		require.NoError(t, err)
		assert.Equal(t, []CarClass{CarClassE, CarClassF, CarClassS}, path)
	})

	t.Run("Top class has no upgrade", func(t *testing.T) {
		path, err := ClassesFrom(CarClassS)
		require.NoError(t, err)
		assert.Equal(t, []CarClass{CarClassS}, path)
	})

	t.Run("Unknown class", func(t *testing.T) {
		_, err := ClassesFrom("Q")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Result does not alias the class list", func(t *testing.T) {
		path, _ := ClassesFrom(CarClassA)
		path[0] = "Z"
		assert.Equal(t, CarClassA, AllCarClasses()[0])
	})
}
