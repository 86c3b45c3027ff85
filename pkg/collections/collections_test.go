package collections_test

import (
	"strings"
	"testing"

	"github.com/quickwish/quickwish/pkg/collections"

	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	labels := []string{"Delivery", "Ride", "Errand"}

	upper := collections.Apply(labels, strings.ToUpper)
	require.Equal(t, []string{"DELIVERY", "RIDE", "ERRAND"}, upper)

	lengths := collections.Apply(labels, func(s string) int { return len(s) })
	require.Equal(t, []int{8, 4, 6}, lengths)
}

func TestApplyEmpty(t *testing.T) {
	out := collections.Apply(nil, func(i int) int { return i })
	require.Empty(t, out)
	require.NotNil(t, out)
}

func TestFind(t *testing.T) {
	type entry struct {
		ID    string
		Label string
	}

	entries := []entry{
		{ID: "auto", Label: "Auto"},
		{ID: "bike", Label: "Bike"},
		{ID: "car", Label: "Car"},
	}

	got, ok := collections.Find(entries, func(e entry) bool { return e.ID == "bike" })
	require.True(t, ok)
	require.Equal(t, "Bike", got.Label)

	_, ok = collections.Find(entries, func(e entry) bool { return e.ID == "truck" })
	require.False(t, ok)
}
