package location

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
)

func TestSiteValidate(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, NewSite("HQ", "Headquarters").Validate(ctx))

	tests := []struct {
		name string
		site *Site
	}{
		{"empty code", NewSite("", "Headquarters")},
		{"empty name", NewSite("HQ", "")},
		{"code too long", NewSite(strings.Repeat("x", maxCodeLen+1), "Headquarters")},
		{"name too long", NewSite("HQ", strings.Repeat("x", maxNameLen+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperror.IsValidation(tt.site.Validate(ctx)))
		})
	}
}

func TestBuildingValidate_RequiresParent(t *testing.T) {
	ctx := context.Background()

	b := NewBuilding(id.New(), "B1", "Main")
	require.NoError(t, b.Validate(ctx))

	b.SiteID = id.Nil()
	assert.True(t, apperror.IsValidation(b.Validate(ctx)))
}

func TestStorageUnitValidate(t *testing.T) {
	ctx := context.Background()
	roomID := id.New()

	u := NewStorageUnit(roomID, "C1", "Parts Cabinet", KindContainer, TypeCabinet)
	require.NoError(t, u.Validate(ctx))

	u = NewStorageUnit(roomID, "C1", "Parts Cabinet", "crate", TypeCabinet)
	assert.True(t, apperror.IsValidation(u.Validate(ctx)))

	u = NewStorageUnit(roomID, "C1", "Parts Cabinet", KindContainer, "barrel")
	assert.True(t, apperror.IsValidation(u.Validate(ctx)))
}

func TestBinValidate(t *testing.T) {
	ctx := context.Background()
	unitID := id.New()

	require.NoError(t, NewBin(unitID, "BIN-01", "Bin 1", KindBin).Validate(ctx))
	require.NoError(t, NewBin(unitID, "S-01", "Slot 1", KindSlot).Validate(ctx))

	bad := NewBin(unitID, "BIN-01", "Bin 1", "tray")
	assert.True(t, apperror.IsValidation(bad.Validate(ctx)))
}
