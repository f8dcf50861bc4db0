package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rollbook/internal/auth"
	"rollbook/internal/store/inmem"
)

func setup(t *testing.T, pwd string) (*commandLine, *inmem.DB) {
	t.Helper()
	db := inmem.New()
	cli := &commandLine{
		cost: bcrypt.MinCost,
		users: func(context.Context) (auth.UserStore, func(), error) {
			return db, func() {}, nil
		},
	}
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
	return cli, db
}

func run(cli *commandLine, args ...string) (string, error) {
	var out bytes.Buffer
	root := cli.rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAddUser(t *testing.T) {
	cli, db := setup(t, "s3cret")

	out, err := run(cli, "adduser", "--username", " clerk ")
	require.NoError(t, err)
	assert.Contains(t, out, `created user "clerk"`)

	u, err := db.UserByUsername(context.Background(), "clerk")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.CheckPassword("s3cret"))

	_, err = run(cli, "adduser", "--username", "clerk")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestAddUserRejectsBadInput(t *testing.T) {
	cli, _ := setup(t, "")

	_, err := run(cli, "adduser", "--username", "clerk")
	assert.ErrorIs(t, err, errEmptyPassword)

	_, err = run(cli, "adduser")
	assert.ErrorContains(t, err, `required flag(s) "username" not set`)
}
