// Package wish holds the QuickWish domain model: categories, drafts,
// and the wire types exchanged with the API.
package wish

import "github.com/quickwish/quickwish/pkg/collections"

// Category is a top-level wish classification.
type Category string

const (
	CategoryDelivery       Category = "delivery"
	CategoryCommercialRide Category = "commercial_ride"
	CategoryTransport      Category = "transport"
	CategoryErrand         Category = "errand"
	CategoryDomesticHelp   Category = "domestic_help"
)

// SubCategory is a second-level classification available only for some
// categories (e.g. ride vehicle type).
type SubCategory string

const (
	SubCategoryAuto     SubCategory = "auto"
	SubCategoryBike     SubCategory = "bike"
	SubCategoryCar      SubCategory = "car"
	SubCategorySmallVan SubCategory = "small_van"
	SubCategoryTruck    SubCategory = "truck"
	SubCategoryPickup   SubCategory = "pickup"
)

// CategoryInfo describes one catalog entry.
type CategoryInfo struct {
	Category      Category
	Label         string
	Placeholder   string
	SubCategories []SubCategoryInfo
}

// SubCategoryInfo describes one sub-category choice.
type SubCategoryInfo struct {
	SubCategory SubCategory
	Label       string
}

// catalog is the static category table. Order matters: it is the order
// categories are presented in the wizard.
var catalog = []CategoryInfo{
	{
		Category:    CategoryDelivery,
		Label:       "Delivery",
		Placeholder: "e.g. Pick up a parcel from the post office",
	},
	{
		Category:    CategoryCommercialRide,
		Label:       "Ride",
		Placeholder: "e.g. Ride to the airport at 6am",
		SubCategories: []SubCategoryInfo{
			{SubCategory: SubCategoryAuto, Label: "Auto"},
			{SubCategory: SubCategoryBike, Label: "Bike"},
			{SubCategory: SubCategoryCar, Label: "Car"},
		},
	},
	{
		Category:    CategoryTransport,
		Label:       "Transport",
		Placeholder: "e.g. Move a sofa across town",
		SubCategories: []SubCategoryInfo{
			{SubCategory: SubCategorySmallVan, Label: "Small van"},
			{SubCategory: SubCategoryTruck, Label: "Truck"},
			{SubCategory: SubCategoryPickup, Label: "Pickup"},
		},
	},
	{
		Category:    CategoryErrand,
		Label:       "Errand",
		Placeholder: "e.g. Stand in line at the passport office",
	},
	{
		Category:    CategoryDomesticHelp,
		Label:       "Domestic help",
		Placeholder: "e.g. Deep-clean a two-room apartment",
	},
}

// Catalog returns all known categories in presentation order.
func Catalog() []CategoryInfo {
	return catalog
}

// Lookup returns the catalog entry for the given category. Unknown
// categories resolve to a generic entry rather than panicking, so a
// stale value coming back from the API still renders.
func Lookup(c Category) CategoryInfo {
	if info, ok := collections.Find(catalog, func(i CategoryInfo) bool { return i.Category == c }); ok {
		return info
	}

	return CategoryInfo{Category: c, Label: string(c), Placeholder: "Describe what you need"}
}

// SubCategories returns the sub-category choices for a category, nil
// when the category has none.
func SubCategories(c Category) []SubCategoryInfo {
	return Lookup(c).SubCategories
}

// RequiresSubCategory reports whether the category's sub-category space
// is non-empty, in which case one must be chosen before the category
// step is complete.
func RequiresSubCategory(c Category) bool {
	return len(SubCategories(c)) > 0
}

// ValidSubCategory reports whether sub belongs to c's sub-category set.
func ValidSubCategory(c Category, sub SubCategory) bool {
	_, ok := collections.Find(SubCategories(c), func(i SubCategoryInfo) bool { return i.SubCategory == sub })

	return ok
}
