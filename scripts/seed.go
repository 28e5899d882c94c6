//go:build ignore

// One-time bootstrap: default organization, the permission catalog, a
// super-admin role holding every permission, and the admin user. Safe to
// re-run; existing rows are left alone.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sidrstudio/atlas/internal/database"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/pkg/config"
	"github.com/sidrstudio/atlas/pkg/util"
	"gorm.io/gorm"
)

var defaultPermissions = []models.Permission{
	{Name: "Read users", Key: rbac.PermReadUsers},
	{Name: "Write users", Key: rbac.PermWriteUsers},
	{Name: "Read organizations", Key: rbac.PermReadOrganizations},
	{Name: "Write organizations", Key: rbac.PermWriteOrganizations},
	{Name: "Read roles", Key: rbac.PermReadRoles},
	{Name: "Write roles", Key: rbac.PermWriteRoles},
	{Name: "Read permissions", Key: rbac.PermReadPermissions},
	{Name: "Write permissions", Key: rbac.PermWritePermissions},
	{Name: "Read feature flags", Key: rbac.PermReadFeatureFlags},
	{Name: "Write feature flags", Key: rbac.PermWriteFeatureFlags},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@sidrstudio.com"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		org, err := ensureDefaultOrg(tx)
		if err != nil {
			return err
		}

		permissions := make([]models.Permission, 0, len(defaultPermissions))
		for _, p := range defaultPermissions {
			permission, err := ensurePermission(tx, p)
			if err != nil {
				return err
			}
			permissions = append(permissions, *permission)
		}

		role, err := ensureRole(tx, "Super Admin", "super-admin")
		if err != nil {
			return err
		}
		if err := tx.Model(role).Association("Permissions").Replace(permissions); err != nil {
			return err
		}

		admin, err := ensureUser(tx, adminEmail, "Admin")
		if err != nil {
			return err
		}

		if err := ensureMembership(tx, admin.ID, org.ID); err != nil {
			return err
		}
		if err := ensureGrant(tx, role.ID, admin.ID, org.ID); err != nil {
			return err
		}

		fmt.Printf("Default organization: %s\n", org.ID)
		fmt.Printf("Admin user: %s (%s)\n", admin.Email, admin.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	fmt.Println("Seeding done")
}

func ensureDefaultOrg(tx *gorm.DB) (*models.Organization, error) {
	var org models.Organization
	err := tx.Where("is_default = ?", true).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = models.Organization{Name: "Default Organization", IsDefault: true}
	if err := tx.Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func ensurePermission(tx *gorm.DB, p models.Permission) (*models.Permission, error) {
	var existing models.Permission
	err := tx.Where("key = ?", p.Key).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func ensureRole(tx *gorm.DB, name, key string) (*models.Role, error) {
	var existing models.Role
	err := tx.Where("key = ?", key).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := models.Role{Name: name, Key: key}
	if err := tx.Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func ensureUser(tx *gorm.DB, email, name string) (*models.User, error) {
	var existing models.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{Email: email, Name: name, IsEmailVerified: true}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ensureMembership(tx *gorm.DB, userID, orgID uuid.UUID) error {
	membership := models.UserToOrganization{UserID: userID, OrganizationID: orgID}
	return tx.Where(&membership).FirstOrCreate(&membership).Error
}

func ensureGrant(tx *gorm.DB, roleID, userID, orgID uuid.UUID) error {
	grant := models.RoleToUser{RoleID: roleID, UserID: userID, OrganizationID: orgID}
	return tx.Where(&grant).FirstOrCreate(&grant).Error
}
