// ABOUTME: Catalog source validation for the setup wizard.
// ABOUTME: Fetches the catalog once and rejects sources with no usable posts.
package tui

import (
	"context"
	"errors"

	"github.com/2389-research/mirrorview/internal/catalog"
	"github.com/2389-research/mirrorview/internal/logging"
)

// ErrEmptyCatalog means the source answered but no post passed validation.
var ErrEmptyCatalog = errors.New("catalog contains no valid posts")

// ValidateCatalog fetches catalogURL and returns how many valid posts it has.
// The context allows cancellation when the user quits during validation.
func ValidateCatalog(ctx context.Context, catalogURL string) (int, error) {
	client := catalog.NewClient(catalogURL, catalog.WithClientLogger(logging.Discard()))
	cat, err := client.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(cat) == 0 {
		return 0, ErrEmptyCatalog
	}
	return len(cat), nil
}
