package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/library"
	"musiccrate/internal/models"
)

// UsersAdd registers a user.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user, ok := lib.Users.Create(ctx, &models.User{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
	})
	if !ok {
		return fmt.Errorf("%w: create user %q", library.ErrFailed, cmd.String("username"))
	}
	return r.writePlain("created user %s\n", user.Username)
}

// UsersList prints every user.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	return r.writeJSON(lib.Users.FindAll(ctx))
}

// UsersDelete removes a user.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if !lib.Users.Delete(ctx, cmd.String("username")) {
		return fmt.Errorf("%w: delete user %q", library.ErrFailed, cmd.String("username"))
	}
	return r.writePlain("deleted user %s\n", cmd.String("username"))
}

// Login prints a session token for valid credentials.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Session.Validate(); err != nil {
		return err
	}
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	token, err := lib.Login(ctx, cmd.String("username"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}

// WhoAmI resolves a session token.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Session.Validate(); err != nil {
		return err
	}
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user, err := lib.CurrentUser(ctx, cmd.String("token"))
	if err != nil {
		return err
	}
	return r.writeJSON(user)
}
