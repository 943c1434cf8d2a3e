package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeItems(n int) []int {
	items := make([]int, n)
	for i := range n {
		items[i] = i
	}
	return items
}

func TestPaginate(t *testing.T) {
	for _, ca := range []struct {
		name         string
		count        int
		itemsPerPage string
		page         string
		pageCount    int
		items        []int
	}{
		{"single item pages", 5, "1", "1", 5, []int{1}},
		{"page out of range", 5, "3", "2", 2, []int{}},
		{"last page", 6, "4", "1", 2, []int{4, 5}},
		{"empty", 0, "1", "0", 0, []int{}},
		{"defaults", 3, "", "", 1, []int{0, 1, 2}},
	} {
		t.Run(ca.name, func(t *testing.T) {
			items, pageCount, err := paginate(makeItems(ca.count), ca.itemsPerPage, ca.page)
			require.NoError(t, err)
			require.Equal(t, ca.pageCount, pageCount)
			require.Equal(t, ca.items, items)
		})
	}
}

func TestPaginateErrors(t *testing.T) {
	_, _, err := paginate(makeItems(3), "0", "")
	require.EqualError(t, err, "invalid items per page")

	_, _, err = paginate(makeItems(3), "", "-1")
	require.Error(t, err)
}

func FuzzPaginate(f *testing.F) {
	f.Fuzz(func(_ *testing.T, str1 string, str2 string) {
		paginate(makeItems(6), str1, str2) //nolint:errcheck
	})
}
