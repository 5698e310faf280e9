package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
)

func TestEntryValidate(t *testing.T) {
	ctx := context.Background()

	valid := &Entry{
		UserID:     id.New(),
		EntityType: "item",
		EntityID:   id.New(),
		Action:     ActionCreate,
	}
	require.NoError(t, valid.Validate(ctx))

	noType := *valid
	noType.EntityType = ""
	assert.True(t, apperror.IsValidation(noType.Validate(ctx)))

	noEntity := *valid
	noEntity.EntityID = id.Nil()
	assert.True(t, apperror.IsValidation(noEntity.Validate(ctx)))

	badAction := *valid
	badAction.Action = "truncate"
	assert.True(t, apperror.IsValidation(badAction.Validate(ctx)))
}

func TestActionIsValid(t *testing.T) {
	for _, a := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionPasswordReset} {
		assert.True(t, a.IsValid(), string(a))
	}
	assert.False(t, Action("restore").IsValid())
}
