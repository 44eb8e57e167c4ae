// Package repository provides data access layer implementations for the application.
package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// applySort appends an ORDER BY clause for a "field:direction" sort parameter.
// Only columns present in allowed may be referenced; anything else falls back
// to newest-first.
func applySort(db *gorm.DB, sort string, allowed map[string]string) *gorm.DB {
	column, direction, ok := parseSort(sort, allowed)
	if !ok {
		return db.Order("created_at DESC")
	}
	return db.Order(fmt.Sprintf("%s %s", column, direction))
}

func parseSort(sort string, allowed map[string]string) (column, direction string, ok bool) {
	if sort == "" {
		return "", "", false
	}

	field := sort
	direction = "DESC"
	if idx := strings.IndexByte(sort, ':'); idx >= 0 {
		field = sort[:idx]
		switch strings.ToLower(sort[idx+1:]) {
		case "asc":
			direction = "ASC"
		case "desc":
			direction = "DESC"
		default:
			return "", "", false
		}
	}

	column, ok = allowed[field]
	if !ok {
		return "", "", false
	}
	return column, direction, true
}
