package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lemo-app/lemo-dashboard/internal/authn"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the Lemo API and keep the token for other commands",
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()

		req, err := promptCredentials(cmd.InOrStdin(), cmd.OutOrStdout(), loginEmail)
		if err != nil {
			return err
		}
		if err := validate.Struct(&req); err != nil {
			return formError(err)
		}

		resp, err := newAPIClient().Login(context.Background(), req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := saveToken(tokenFile, resp.Token); err != nil {
			return err
		}

		if claims, err := authn.ParseClaims(resp.Token); err == nil {
			if exp, ok := claims.Expiry(); ok {
				log.Info().Time("expires", exp).Msg("Token saved")
			}
		}

		name := req.Email
		if resp.User != nil && resp.User.FullName != "" {
			name = resp.User.FullName
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
}

// promptCredentials asks for whatever is missing. The password is read
// without echo when stdin is a terminal.
func promptCredentials(in io.Reader, out io.Writer, email string) (models.LoginRequest, error) {
	reader := bufio.NewReader(in)

	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return models.LoginRequest{}, fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return models.LoginRequest{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return models.LoginRequest{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	return models.LoginRequest{Email: email, Password: password}, nil
}

// formError flattens a validation error into one line per field.
func formError(err error) error {
	fields := validate.Fields(err)
	if fields == nil {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}
