// Package seed loads reference data and generates demo content for development.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"unajuda/internal/cache"
	"unajuda/internal/models"
	"unajuda/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Catalog is the reference data every environment needs.
type Catalog struct {
	Categories []CategorySpec `yaml:"categories"`
	Badges     []BadgeSpec    `yaml:"badges"`
}

// CategorySpec is one category entry of catalog.yml.
type CategorySpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// BadgeSpec is one badge entry of catalog.yml.
type BadgeSpec struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	Icon             string `yaml:"icon"`
	RequirementType  string `yaml:"requirement_type"`
	RequirementCount int    `yaml:"requirement_count"`
}

var knownRequirements = map[models.RequirementType]struct{}{
	models.RequirementQuestions:       {},
	models.RequirementAnswers:         {},
	models.RequirementHelpfulVotes:    {},
	models.RequirementAcceptedAnswers: {},
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Badges))
	for _, b := range c.Badges {
		if b.Name == "" {
			return nil, fmt.Errorf("badge without name")
		}
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("badge %q listed twice", b.Name)
		}
		seen[b.Name] = struct{}{}
		if _, ok := knownRequirements[models.RequirementType(b.RequirementType)]; !ok {
			return nil, fmt.Errorf("badge %q: unknown requirement_type %q", b.Name, b.RequirementType)
		}
		if b.RequirementCount <= 0 {
			return nil, fmt.Errorf("badge %q: requirement_count must be positive", b.Name)
		}
	}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category without name")
		}
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// Model converts the catalog entry to a badge row. Unknown icons fall back to the default icon.
func (b BadgeSpec) Model() models.Badge {
	icon := models.ParseBadgeIcon(b.Icon)
	if string(icon) != b.Icon {
		slog.Warn("unknown badge icon, using fallback", slog.String("badge", b.Name), slog.String("icon", b.Icon))
	}
	return models.Badge{
		Name:             b.Name,
		Description:      b.Description,
		Icon:             icon,
		RequirementType:  models.RequirementType(b.RequirementType),
		RequirementCount: b.RequirementCount,
	}
}

// Apply upserts categories and badges. Running it twice is harmless.
func (c *Catalog) Apply(ctx context.Context, categories repository.CategoryRepository, badges repository.BadgeRepository) error {
	for _, entry := range c.Categories {
		cat := models.Category{Name: entry.Name, Description: entry.Description}
		if err := categories.Upsert(ctx, &cat); err != nil {
			return fmt.Errorf("seed category %s: %w", entry.Name, err)
		}
	}
	for _, entry := range c.Badges {
		badge := entry.Model()
		if err := badges.Upsert(ctx, &badge); err != nil {
			return fmt.Errorf("seed badge %s: %w", entry.Name, err)
		}
	}
	// Cached catalog reads must see the new thresholds.
	cache.Invalidate(ctx, cache.BadgeCatalogKey, cache.CategoriesKey)

	slog.InfoContext(ctx, "catalog seeded",
		slog.Int("categories", len(c.Categories)),
		slog.Int("badges", len(c.Badges)),
	)
	return nil
}
