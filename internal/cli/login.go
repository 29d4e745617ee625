package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the IMAP password in the OS keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			user := strings.TrimSpace(cfg.IMAP.User)
			if user == "" {
				return errors.New("IMAP user is required via imap.user or MAILTRIM_IMAP_USER")
			}

			var password string
			fromStdin, _ := cmd.Flags().GetBool("password-stdin")
			if fromStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			} else {
				err := huh.NewInput().
					Title(fmt.Sprintf("Password for %s", user)).
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(validateRequired("Password")).
					Run()
				if err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			store, err := openCredentialStore()
			if err != nil {
				return err
			}
			if err := store.Set(user, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s\n", user)
			return nil
		},
	}
	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}
