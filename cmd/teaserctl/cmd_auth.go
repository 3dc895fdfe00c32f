package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var passwordFlag string

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Authenticate against the backend and store the session credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		store, err := tokenStore()
		if err != nil {
			return err
		}
		client := backendClient(store)

		if _, err := client.Login(cmd.Context(), args[0], password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Println("Logged in.")
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		store, err := tokenStore()
		if err != nil {
			return err
		}
		client := backendClient(store)

		if err := client.Signup(cmd.Context(), args[0], password); err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Println("Account created. Run `teaserctl login` to sign in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := tokenStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func readPassword() (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	fmt.Print("Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}

func init() {
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "password (prompts when omitted)")
	signupCmd.Flags().StringVar(&passwordFlag, "password", "", "password (prompts when omitted)")
}
