package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/dto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

func newCreateAdminCommand() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := promptAdmin(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), username, email)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()

			user, err := a.users.CreateAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	return cmd
}

// promptAdmin fills in whatever the flags left empty and always asks for the
// password twice without echo.
func promptAdmin(r *bufio.Reader, w io.Writer, username, email string) (dto.SignupInput, error) {
	var err error
	if username == "" {
		if username, err = promptLine(r, w, "Username: "); err != nil {
			return dto.SignupInput{}, err
		}
	}
	if email == "" {
		if email, err = promptLine(r, w, "Email: "); err != nil {
			return dto.SignupInput{}, err
		}
	}

	password, err := promptSecret(w, "Password: ")
	if err != nil {
		return dto.SignupInput{}, err
	}
	confirm, err := promptSecret(w, "Confirm password: ")
	if err != nil {
		return dto.SignupInput{}, err
	}

	return dto.SignupInput{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	}, nil
}

func promptLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
