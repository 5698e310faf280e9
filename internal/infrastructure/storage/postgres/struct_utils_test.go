package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kota/internal/core/entity"
	"kota/internal/core/id"
	"kota/internal/core/types"
)

type mockItem struct {
	entity.Versioned
	Description string         `db:"description" json:"description"`
	QtyOnHand   types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	BinID       id.ID          `db:"bin_id" json:"binId"`
	Notes       *string        `db:"notes" json:"notes,omitempty"`
	Ignored     string         `db:"-" json:"-"`
	NoTag       string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockItem]()

	expectedCols := []string{
		"id", "row_version", "created_at", "updated_at",
		"description", "qty_on_hand", "bin_id", "notes",
	}

	assert.Len(t, cols, len(expectedCols))
	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	notes := "keep dry"
	m := mockItem{
		Versioned: entity.Versioned{
			Base:      entity.Base{ID: id.New()},
			Version:   3,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Description: "M3 hex bolt",
		QtyOnHand:   types.MustQuantity("12.5"),
		BinID:       id.New(),
		Notes:       &notes,
		Ignored:     "skip me",
		NoTag:       "skip me too",
	}

	data := StructToMap(m)

	assert.Equal(t, m.ID, data["id"])
	assert.Equal(t, 3, data["row_version"])
	assert.Equal(t, now, data["created_at"])
	assert.Equal(t, "M3 hex bolt", data["description"])
	assert.Equal(t, m.QtyOnHand, data["qty_on_hand"])
	assert.Equal(t, m.BinID, data["bin_id"])
	assert.Equal(t, &notes, data["notes"])
	assert.NotContains(t, data, "-")
	assert.Len(t, data, 8)
}

func TestStructToMap_Pointer(t *testing.T) {
	m := &mockItem{Description: "pointer input"}
	data := StructToMap(m)
	assert.Equal(t, "pointer input", data["description"])
}
