package inventory

import (
	"fmt"
	"strings"

	"github.com/erazemk/shramba/internal/model"
)

// Validate checks that d has a name, a location and a category.
func Validate(d model.Draft) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case strings.TrimSpace(d.Location) == "":
		return fmt.Errorf("%w: location is required", ErrInvalidItem)
	case strings.TrimSpace(d.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidItem)
	}
	return nil
}
