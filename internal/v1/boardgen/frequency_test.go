package boardgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolOf(n int) []ItemRef {
	items := make([]ItemRef, n)
	for i := range items {
		items[i] = ItemRef{ID: fmt.Sprintf("item-%02d", i), Name: fmt.Sprintf("Item %d", i)}
	}
	return items
}

func TestBuildFrequencies_Uniform(t *testing.T) {
	t.Run("remainder goes to the leading items", func(t *testing.T) {
		// 12 items, 2 boards of 9 slots: 18 slots over 12 items.
		req := &Request{
			Items:        poolOf(12),
			NumBoards:    2,
			BoardConfig:  GridConfig{Rows: 3, Cols: 3},
			Distribution: Distribution{Type: DistUniform},
		}
		freqs, err := BuildFrequencies(req)
		require.NoError(t, err)
		require.Len(t, freqs, 12)

		for i := 0; i < 6; i++ {
			assert.Equal(t, 2, freqs[i], "item %d", i)
		}
		for i := 6; i < 12; i++ {
			assert.Equal(t, 1, freqs[i], "item %d", i)
		}
	})

	t.Run("empty type defaults to uniform", func(t *testing.T) {
		req := &Request{Items: poolOf(4), NumBoards: 2, BoardConfig: GridConfig{Rows: 2, Cols: 1}}
		freqs, err := BuildFrequencies(req)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1, 1, 1}, freqs)
	})
}

func TestBuildFrequencies_Grouped(t *testing.T) {
	base := &Request{
		Items:       poolOf(6),
		NumBoards:   3,
		BoardConfig: GridConfig{Rows: 2, Cols: 2},
	}

	t.Run("assigns per-range frequencies", func(t *testing.T) {
		req := *base
		req.Distribution = Distribution{Type: DistGrouped, Groups: []Group{
			{StartIndex: 0, EndIndex: 2, Frequency: 3},
			{StartIndex: 3, EndIndex: 5, Frequency: 1},
		}}
		freqs, err := BuildFrequencies(&req)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 3, 3, 1, 1, 1}, freqs)
	})

	t.Run("rejects uncovered items", func(t *testing.T) {
		req := *base
		req.Distribution = Distribution{Type: DistGrouped, Groups: []Group{
			{StartIndex: 0, EndIndex: 2, Frequency: 3},
		}}
		_, err := BuildFrequencies(&req)
		assert.ErrorContains(t, err, "not covered")
	})

	t.Run("rejects overlapping groups", func(t *testing.T) {
		req := *base
		req.Distribution = Distribution{Type: DistGrouped, Groups: []Group{
			{StartIndex: 0, EndIndex: 3, Frequency: 2},
			{StartIndex: 3, EndIndex: 5, Frequency: 2},
		}}
		_, err := BuildFrequencies(&req)
		assert.ErrorContains(t, err, "more than one group")
	})

	t.Run("rejects out-of-range groups", func(t *testing.T) {
		req := *base
		req.Distribution = Distribution{Type: DistGrouped, Groups: []Group{
			{StartIndex: 2, EndIndex: 9, Frequency: 1},
		}}
		_, err := BuildFrequencies(&req)
		assert.ErrorContains(t, err, "invalid range")
	})
}

func TestBuildFrequencies_Custom(t *testing.T) {
	items := poolOf(3)

	t.Run("maps frequencies by item id", func(t *testing.T) {
		req := &Request{Items: items, NumBoards: 2, BoardConfig: GridConfig{Rows: 1, Cols: 2},
			Distribution: Distribution{Type: DistCustom, Frequencies: []ItemFrequency{
				{ItemID: "item-02", Frequency: 1},
				{ItemID: "item-00", Frequency: 2},
				{ItemID: "item-01", Frequency: 1},
			}}}
		freqs, err := BuildFrequencies(req)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1, 1}, freqs)
	})

	t.Run("rejects missing entries", func(t *testing.T) {
		req := &Request{Items: items,
			Distribution: Distribution{Type: DistCustom, Frequencies: []ItemFrequency{
				{ItemID: "item-00", Frequency: 2},
			}}}
		_, err := BuildFrequencies(req)
		assert.ErrorContains(t, err, "no frequency given")
	})

	t.Run("rejects duplicate entries", func(t *testing.T) {
		req := &Request{Items: items,
			Distribution: Distribution{Type: DistCustom, Frequencies: []ItemFrequency{
				{ItemID: "item-00", Frequency: 2},
				{ItemID: "item-00", Frequency: 1},
				{ItemID: "item-01", Frequency: 1},
				{ItemID: "item-02", Frequency: 1},
			}}}
		_, err := BuildFrequencies(req)
		assert.ErrorContains(t, err, "duplicate frequency entry")
	})

	t.Run("rejects entries for unknown items", func(t *testing.T) {
		req := &Request{Items: items,
			Distribution: Distribution{Type: DistCustom, Frequencies: []ItemFrequency{
				{ItemID: "item-00", Frequency: 1},
				{ItemID: "item-01", Frequency: 1},
				{ItemID: "item-02", Frequency: 1},
				{ItemID: "ghost", Frequency: 1},
			}}}
		_, err := BuildFrequencies(req)
		assert.ErrorContains(t, err, "unknown item")
	})
}

func TestBuildFrequencies_UnknownType(t *testing.T) {
	req := &Request{Items: poolOf(2), Distribution: Distribution{Type: "zipfian"}}
	_, err := BuildFrequencies(req)
	assert.ErrorContains(t, err, "unknown distribution type")
}
