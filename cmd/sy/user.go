package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintyard/internal/access"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User account management commands",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserAssignRoleCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath string
		password   string
		nickname   string
		email      string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user account",
		Long: `Creates a user account. Without --password the password is read from
the terminal, or from stdin when not attached to one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if password == "" {
				password, err = readPassword(cmd)
				if err != nil {
					return err
				}
			}

			user, err := access.CreateUser(gormDB, access.UserOpts{
				Name:     args[0],
				Password: password,
				Nickname: nickname,
				Email:    email,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Name, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name (defaults to the login name)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

// readPassword prompts on the controlling terminal without echo. When stdin
// is not a terminal (pipes, tests) it reads a plain line instead.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			users, err := access.ListUsers(gormDB)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tNICKNAME\tEMAIL\tROLES")
			for _, u := range users {
				roles, err := access.UserRoles(gormDB, u.ID)
				if err != nil {
					return err
				}
				names := make([]string, len(roles))
				for i, r := range roles {
					names[i] = r.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Nickname, u.Email, strings.Join(names, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	return cmd
}

func newUserAssignRoleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign-role <name> <role>...",
		Short: "Grant roles to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			user, err := access.GetUserByName(gormDB, args[0])
			if err != nil {
				return err
			}
			for _, role := range args[1:] {
				if err := access.GrantRole(gormDB, user.ID, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", role, user.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	return cmd
}
