package api

import (
	"fmt"
	"strconv"
)

const defaultItemsPerPage = 100

func parsePageParams(itemsPerPageStr string, pageStr string) (int, int, error) {
	itemsPerPage := defaultItemsPerPage

	if itemsPerPageStr != "" {
		tmp, err := strconv.ParseUint(itemsPerPageStr, 10, 31)
		if err != nil {
			return 0, 0, err
		}
		itemsPerPage = int(tmp)

		if itemsPerPage == 0 {
			return 0, 0, fmt.Errorf("invalid items per page")
		}
	}

	page := 0

	if pageStr != "" {
		tmp, err := strconv.ParseUint(pageStr, 10, 31)
		if err != nil {
			return 0, 0, err
		}
		page = int(tmp)
	}

	return itemsPerPage, page, nil
}

// paginate returns the requested page of items and the page count.
func paginate[T any](items []T, itemsPerPageStr string, pageStr string) ([]T, int, error) {
	itemsPerPage, page, err := parsePageParams(itemsPerPageStr, pageStr)
	if err != nil {
		return nil, 0, err
	}

	if len(items) == 0 {
		return items, 0, nil
	}

	pageCount := (len(items) + itemsPerPage - 1) / itemsPerPage

	lo := min(page*itemsPerPage, len(items))
	hi := min(lo+itemsPerPage, len(items))

	return items[lo:hi], pageCount, nil
}
