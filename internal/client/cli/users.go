package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nexuzy/artsync/internal/client/models"
)

// ListUsers prints all accounts. The service enforces admin access.
func (a *App) ListUsers(ctx context.Context) error {
	accounts, err := a.auth.ListUsers(ctx, a.currentUser)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tLAST LOGIN")
	for _, u := range accounts {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, lastLogin)
	}
	return w.Flush()
}

// AddUser prompts for account details and creates the user.
func (a *App) AddUser(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "New username", os.Stdout)
	if err != nil {
		return err
	}
	role, err := GetChoice(a.reader, "Role", []string{models.RoleUser, models.RoleAdmin}, "", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	u, err := a.auth.CreateUser(ctx, a.currentUser, username, string(password), role)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s (%s)\n", u.Username, u.Role)
	return nil
}

// DeleteUser prompts for the account id and removes it.
func (a *App) DeleteUser(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "User id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.auth.DeleteUser(ctx, a.currentUser, id); err != nil {
		return err
	}
	printlnFn("Deleted user", id)
	return nil
}
