package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// Profile показывает профиль или частично обновляет его.
// Без флагов команда печатает профиль с сервера; каждый переданный флаг
// меняет соответствующее поле, остальные не трогаются.
func (c *Cli) Profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	username := fs.String("username", "", "New display name")
	avatar := fs.String("avatar", "", "New avatar reference")
	fullName := fs.String("full-name", "", "New full name")
	bio := fs.String("bio", "", "New bio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := c.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if token == "" {
		return fmt.Errorf("not authenticated. Please run 'tutor-client login' first")
	}

	// Собираем частичное обновление только из переданных флагов
	upd := pkgapi.ProfileUpdateRequest{}
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "username":
			upd.Username = username
		case "avatar":
			upd.Avatar = avatar
		case "full-name":
			upd.FullName = fullName
		case "bio":
			upd.Bio = bio
		}
	})

	if !changed {
		user, err := c.apiClient.Profile(ctx, token)
		if err != nil {
			return err
		}
		c.printProfile(user)
		return nil
	}

	user, err := c.apiClient.UpdateProfile(ctx, token, upd)
	if err != nil {
		return err
	}

	// Синхронизируем локальную копию профиля
	if _, err := c.store.UpdateUser(ctx, models.UserUpdate{
		Username: upd.Username,
		Avatar:   upd.Avatar,
		FullName: upd.FullName,
		Bio:      upd.Bio,
	}); err != nil {
		c.logger.Warn("failed to update stored profile", "error", err)
	}

	c.io.Println("✓ Profile updated!")
	c.io.Println("")
	c.printProfile(user)
	return nil
}

func (c *Cli) printProfile(user *models.UserProfile) {
	c.io.Println("=== Profile ===")
	c.io.Printf("Email:     %s\n", user.Email)
	c.io.Printf("Username:  %s\n", user.Username)
	c.io.Printf("Role:      %s\n", user.Role)
	c.io.Printf("Full name: %s\n", user.FullName)
	c.io.Printf("Avatar:    %s\n", user.Avatar)
	c.io.Printf("Bio:       %s\n", user.Bio)
}
