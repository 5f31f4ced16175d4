package repository_test

import (
	"testing"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationRegistry(t *testing.T) {
	registry, err := repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "central", Name: "Farmacia Central", IsMain: true},
		{ID: "norte", Name: "Farmacia Norte"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, registry.Len())
	assert.True(t, registry.Exists("central"))
	assert.False(t, registry.Exists("oeste"))

	loc, err := registry.Get("norte")
	require.NoError(t, err)
	assert.Equal(t, "Farmacia Norte", loc.Name)

	main := registry.Main()
	require.NotNil(t, main)
	assert.Equal(t, "central", main.ID)
}

func TestNewLocationRegistry_Rejections(t *testing.T) {
	_, err := repository.NewLocationRegistry(nil)
	require.Error(t, err)

	_, err = repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "central", Name: "A"},
		{ID: "central", Name: "B"},
	})
	require.Error(t, err)
}

func TestLocationRegistry_GetUnknown(t *testing.T) {
	registry, err := repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "central", Name: "Farmacia Central"},
	})
	require.NoError(t, err)

	_, err = registry.Get("nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLocationNotFound))
}

func TestLocationRegistry_ListPreservesOrder(t *testing.T) {
	registry, err := repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "sur", Name: "Sur"},
		{ID: "central", Name: "Central"},
		{ID: "norte", Name: "Norte"},
	})
	require.NoError(t, err)

	list := registry.List()
	require.Len(t, list, 3)
	assert.Equal(t, "sur", list[0].ID)
	assert.Equal(t, "central", list[1].ID)
	assert.Equal(t, "norte", list[2].ID)
}
