package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	t.Run("same seed yields same stream", func(t *testing.T) {
		a := NewRNG(42)
		b := NewRNG(42)
		for i := 0; i < 1000; i++ {
			assert.Equal(t, a.Float64(), b.Float64(), "streams diverged at draw %d", i)
		}
	})

	t.Run("different seeds yield different streams", func(t *testing.T) {
		a := NewRNG(1)
		b := NewRNG(2)
		same := true
		for i := 0; i < 16; i++ {
			if a.Float64() != b.Float64() {
				same = false
				break
			}
		}
		assert.False(t, same, "seeds 1 and 2 should not produce identical streams")
	})

	t.Run("values stay in [0, 1)", func(t *testing.T) {
		r := NewRNG(7)
		for i := 0; i < 10000; i++ {
			v := r.Float64()
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	})
}

func TestRNG_Intn(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}

	assert.Panics(t, func() { NewRNG(1).Intn(0) })
}

func TestPermute(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	t.Run("is a permutation", func(t *testing.T) {
		out := Permute(ids, 42)
		assert.ElementsMatch(t, ids, out)
	})

	t.Run("same seed reproduces the order", func(t *testing.T) {
		assert.Equal(t, Permute(ids, 42), Permute(ids, 42))
	})

	t.Run("does not modify the input", func(t *testing.T) {
		in := []string{"a", "b", "c", "d"}
		_ = Permute(in, 5)
		assert.Equal(t, []string{"a", "b", "c", "d"}, in)
	})

	t.Run("single element and empty are stable", func(t *testing.T) {
		assert.Equal(t, []string{"x"}, Permute([]string{"x"}, 3))
		assert.Empty(t, Permute([]string{}, 3))
	})
}

func TestNewSeed_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		seed, err := NewSeed()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, seed, int32(0), "seeds are drawn from [0, 2^31)")
	}
}
