package wish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSubCategorySpaces(t *testing.T) {
	assert.False(t, RequiresSubCategory(CategoryDelivery))
	assert.False(t, RequiresSubCategory(CategoryErrand))
	assert.False(t, RequiresSubCategory(CategoryDomesticHelp))
	assert.True(t, RequiresSubCategory(CategoryCommercialRide))
	assert.True(t, RequiresSubCategory(CategoryTransport))
}

func TestLookupUnknownCategoryFallsBack(t *testing.T) {
	info := Lookup(Category("teleportation"))
	require.Equal(t, "teleportation", info.Label)
	assert.NotEmpty(t, info.Placeholder)
	assert.Empty(t, info.SubCategories)
}

func TestValidSubCategory(t *testing.T) {
	assert.True(t, ValidSubCategory(CategoryCommercialRide, SubCategoryAuto))
	assert.False(t, ValidSubCategory(CategoryCommercialRide, SubCategoryTruck))
	assert.False(t, ValidSubCategory(CategoryDelivery, SubCategoryAuto))
}

func TestCatalogPlaceholdersPresent(t *testing.T) {
	for _, info := range Catalog() {
		assert.NotEmpty(t, info.Placeholder, "category %s", info.Category)
		assert.NotEmpty(t, info.Label, "category %s", info.Category)
	}
}
