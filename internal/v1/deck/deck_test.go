package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeck_Validate(t *testing.T) {
	valid := Deck{ID: "d", Items: []Item{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}

	tests := []struct {
		name    string
		deck    Deck
		wantErr string
	}{
		{"valid deck", valid, ""},
		{"empty id", Deck{Items: valid.Items}, "deck id cannot be empty"},
		{"no items", Deck{ID: "d"}, "at least one item"},
		{"empty item id", Deck{ID: "d", Items: []Item{{Name: "A"}}}, "empty id"},
		{"empty item name", Deck{ID: "d", Items: []Item{{ID: "a"}}}, "empty name"},
		{"duplicate item id", Deck{ID: "d", Items: []Item{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}}, "duplicate item id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deck.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDeck_Lookups(t *testing.T) {
	d := Deck{ID: "d", Items: []Item{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []ItemID{"a", "b"}, d.IDs())

	item, ok := d.ItemByID("b")
	assert.True(t, ok)
	assert.Equal(t, "B", item.Name)

	_, ok = d.ItemByID("missing")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	t.Run("loads a valid catalog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deck.json")
		payload := `{"id":"test","theme":"classic","items":[{"id":"c1","name":"One","imageUrl":"/1.webp"},{"id":"c2","name":"Two","imageUrl":"/2.webp"}]}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

		d, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "test", d.ID)
		assert.Equal(t, 2, d.Len())
		assert.Equal(t, "classic", d.Theme)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to read deck file")
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse deck file")
	})

	t.Run("invalid deck content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":"x","items":[]}`), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "at least one item")
	})
}

func TestDefault(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	assert.Equal(t, 24, d.Len())
	assert.Equal(t, ItemID("card-01"), d.Items[0].ID)
}
