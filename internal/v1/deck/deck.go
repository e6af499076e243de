// Package deck holds the immutable card-content model consumed by the room
// runtime. Items are identified by string IDs unique within their deck; the
// catalog a deck is loaded from is outside this service, so the loader only
// validates what the runtime consumes.
package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ItemID uniquely identifies an item within its deck.
type ItemID string

// Item is a single callable card. Immutable once loaded.
type Item struct {
	ID           ItemID `json:"id"`
	Name         string `json:"name"`
	ShortText    string `json:"shortText"`
	LongText     string `json:"longText,omitempty"`
	DetailedText string `json:"detailedText,omitempty"`
	Category     string `json:"category,omitempty"`
	ThemeColor   string `json:"themeColor,omitempty"`
	ImageURL     string `json:"imageUrl"`
}

// Deck is an ordered, immutable sequence of items.
type Deck struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
	Theme string `json:"theme,omitempty"`
}

// Len returns the number of items.
func (d Deck) Len() int {
	return len(d.Items)
}

// IDs returns the item IDs in deck order.
func (d Deck) IDs() []ItemID {
	ids := make([]ItemID, len(d.Items))
	for i, item := range d.Items {
		ids[i] = item.ID
	}
	return ids
}

// ItemByID looks an item up by its ID.
func (d Deck) ItemByID(id ItemID) (Item, bool) {
	for _, item := range d.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Validate checks the invariants the runtime relies on: a non-empty deck with
// unique, non-empty item IDs.
func (d Deck) Validate() error {
	if d.ID == "" {
		return errors.New("deck id cannot be empty")
	}
	if len(d.Items) == 0 {
		return errors.New("deck must contain at least one item")
	}
	seen := make(map[ItemID]struct{}, len(d.Items))
	for i, item := range d.Items {
		if item.ID == "" {
			return fmt.Errorf("item %d has an empty id", i)
		}
		if item.Name == "" {
			return fmt.Errorf("item %q has an empty name", item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// Load reads a deck from a JSON file and validates it.
func Load(path string) (Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Deck{}, fmt.Errorf("failed to read deck file: %w", err)
	}
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return Deck{}, fmt.Errorf("failed to parse deck file: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Deck{}, fmt.Errorf("invalid deck %q: %w", path, err)
	}
	return d, nil
}

// Default returns the built-in starter deck used when no DECK_PATH is
// configured. Kept small enough to finish a round quickly in development.
func Default() Deck {
	names := []string{
		"El Gallo", "La Luna", "El Sol", "La Estrella", "El Arbol",
		"La Sirena", "La Escalera", "La Botella", "El Barril", "El Musico",
		"La Corona", "El Mundo", "La Campana", "El Corazon", "La Rosa",
		"El Pescado", "La Palma", "La Maceta", "El Tambor", "El Cantarito",
		"El Pajaro", "La Mano", "La Bota", "El Violoncello",
	}
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{
			ID:        ItemID(fmt.Sprintf("card-%02d", i+1)),
			Name:      name,
			ShortText: name,
			ImageURL:  fmt.Sprintf("/assets/cards/%02d.webp", i+1),
		}
	}
	return Deck{ID: "default", Items: items, Theme: "classic"}
}
