package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func init() {
	loginCmd.Flags().StringVar(
		&loginCmdConfig.token,
		"token",
		"",
		"Personal access token to store. Read from stdin when omitted.")
	loginCmd.Flags().BoolVar(
		&loginCmdConfig.noSave,
		"no-save",
		false,
		"Verify the token without saving it to the credentials file")
	RootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

var loginCmdConfig = struct {
	token  string
	noSave bool
}{}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify a personal access token and save it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		token := loginCmdConfig.token
		if token == "" {
			if token, err = readToken(); err != nil {
				return err
			}
		}
		login, err := a.Login(cmd.Context(), token, !loginCmdConfig.noSave)
		if err != nil {
			return err
		}
		Stdout.Printf("Connected as %s", login)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.Logout(); err != nil {
			return err
		}
		Stdout.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the credential belongs to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		login, err := a.Authenticate(cmd.Context())
		if err != nil {
			return err
		}
		Stdout.Println(login)
		return nil
	},
}

func readToken() (string, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(os.Stderr, "Personal access token: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("error reading token: %w", err)
		}
		return "", fmt.Errorf("no token given")
	}
	return line, nil
}
