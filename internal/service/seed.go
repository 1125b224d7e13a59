package service

import (
	"context"
	"errors"
	"fmt"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"

	"go.uber.org/zap"
)

type SeedDeps struct {
	Privileges    repository.PrivilegeRepository
	Roles         repository.RoleRepository
	Users         repository.UserRepository
	AdminEmail    string
	AdminPassword string
	Logger        *zap.Logger
}

// SeedAccessControl creates the default privileges and roles, grants them, and creates the
// admin account. Existing rows are left as they are, so it is safe on every start.
func SeedAccessControl(ctx context.Context, d SeedDeps) error {
	if err := d.Privileges.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := d.Roles.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	all, err := d.Privileges.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list privileges: %w", err)
	}

	admin, err := d.Roles.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	if len(admin.Privileges) == 0 {
		if err := d.Roles.AssignPrivileges(ctx, admin, all); err != nil {
			return fmt.Errorf("grant %s: %w", model.RoleAdmin, err)
		}
		admin.Privileges = all
		d.Logger.Info("role granted all privileges", zap.String("role", model.RoleAdmin))
	}

	operator, err := d.Roles.FindByCode(ctx, model.RoleOperator)
	if err != nil {
		return err
	}
	if len(operator.Privileges) == 0 {
		var granted []model.Privilege
		for _, p := range all {
			if !model.OperatorExcluded[p.Code] {
				granted = append(granted, p)
			}
		}
		if err := d.Roles.AssignPrivileges(ctx, operator, granted); err != nil {
			return fmt.Errorf("grant %s: %w", model.RoleOperator, err)
		}
		d.Logger.Info("role granted limited privileges", zap.String("role", model.RoleOperator), zap.Int("count", len(granted)))
	}

	if d.AdminEmail == "" {
		return nil
	}
	_, err = d.Users.FindByEmail(ctx, d.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	user := &model.User{
		Email:      d.AdminEmail,
		FullName:   "Administrator",
		RoleID:     &admin.ID,
		IsActive:   true,
		Privileges: admin.Privileges,
	}
	user.CreatedBy = model.SystemActor.ID
	user.UpdatedBy = model.SystemActor.ID
	if err := user.SetPassword(d.AdminPassword); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := d.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	d.Logger.Info("admin user created", zap.String("email", d.AdminEmail))
	return nil
}
