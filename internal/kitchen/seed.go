package kitchen

import (
	"context"
	"strings"

	"github.com/mmynk/homekitchen/internal/models"
)

// Seed creates a member for each name when the store has no users yet. Each
// member gets the default password and is recorded as their own creator.
// It returns the number of members created.
func Seed(ctx context.Context, svc *Service, names []string) (int, error) {
	existing, err := svc.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		svc.logger.Info("Users already present, skipping seed", "count", len(existing))
		return 0, nil
	}

	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := svc.CreateUser(ctx, models.Fields{"name": name}, 0); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
