package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts the user for credentials and authenticates against the
// local store. Connectivity is irrelevant here: login works fully offline.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	u, err := a.auth.Login(ctx, username, string(password))
	if err != nil {
		return err
	}

	a.currentUser = u
	fmt.Printf("Welcome, %s (%s)\n", u.Username, u.Role)
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.currentUser = nil
	printlnFn("Logged out")
	return nil
}
