// Package userctl implements the operator tool that registers users.
// Registration is deliberately not exposed over HTTP; an operator runs this
// against the same database the server uses.
package userctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// Registrar is the slice of UserService the tool needs.
type Registrar interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
}

type App struct {
	registrar Registrar
	out       io.Writer
}

func NewApp(r Registrar, out io.Writer) *App {
	return &App{registrar: r, out: out}
}

// Run prompts for the password twice without echo and registers the user.
func (app *App) Run(ctx context.Context, username string) error {
	if username == "" {
		return errors.New("username is required (-l)")
	}

	password, err := app.getPassword("Enter password: ")
	if err != nil {
		return err
	}
	confirmation, err := app.getPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if !bytes.Equal(password, confirmation) {
		return errors.New("passwords do not match")
	}

	user, err := app.registrar.Register(ctx, username, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "user %q created\n", user.Username)
	return nil
}

func (app *App) getPassword(prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(app.out, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(app.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
