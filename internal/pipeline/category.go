package pipeline

import (
	"fmt"
	"strings"
)

// Category is the taxonomy a request is judged against.
type Category string

const (
	CategoryProfessional   Category = "PROFESSIONAL"
	CategoryHealthyLeisure Category = "HEALTHY_LEISURE"
	CategoryNews           Category = "NEWS"
	CategoryNoise          Category = "NOISE"
)

// Categories lists the canonical categories.
var Categories = []Category{CategoryProfessional, CategoryHealthyLeisure, CategoryNews, CategoryNoise}

var categoryAliases = map[string]Category{
	"PROFESIONAL": CategoryProfessional,
	"OCIO_SANO":   CategoryHealthyLeisure,
	"NOTICIAS":    CategoryNews,
	"RUIDO":       CategoryNoise,
}

// ParseCategory accepts a canonical category or one of the legacy Spanish
// codes, in any case.
func ParseCategory(s string) (Category, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == key {
			return c, nil
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (want one of %s)", s, categoryList())
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
