package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rollbook/internal/auth"
	"rollbook/internal/store"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password must not be empty")
)

type commandLine struct {
	connect func(ctx context.Context) (*store.DB, error)
	users   func(ctx context.Context) (auth.UserStore, func(), error)
	cost    int
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tasks for rollbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(cli.migrateCmd(), cli.addUserCmd())
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	steps := map[string]func(context.Context, *store.DB) error{
		"up":     store.MigrateUp,
		"down":   store.MigrateDown,
		"status": store.MigrateStatus,
	}
	for _, name := range []string{"up", "down", "status"} {
		step := steps[name]
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "migrate " + name,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := cli.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				return step(cmd.Context(), db)
			},
		})
	}
	return cmd
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a login account; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
			pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return errors.Wrap(err, "read password")
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}
			return cli.addUser(cmd, strings.TrimSpace(username), string(pwd))
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name of the new account")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) addUser(cmd *cobra.Command, username, pwd string) error {
	users, done, err := cli.users(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	u, err := auth.NewService(users, auth.TokenConfig{}, cli.cost).Register(cmd.Context(), username, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %q (id %d)\n", u.Username, u.ID)
	return nil
}
