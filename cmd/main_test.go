package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(&app{})

	for _, name := range []string{"serve", "crawl", "register", "search", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRegisterCmd_RequiresFlags(t *testing.T) {
	cmd := newRegisterCmd(&app{})

	for _, name := range []string{"org", "base", "name", "path"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}

func TestExecute_ClosesAppWhenCommandFails(t *testing.T) {
	t.Setenv("NB_STORAGE", "memory")
	t.Setenv("NB_DRIVER", "http")

	var closed int
	a := &app{closers: []func(){func() { closed++ }}}

	err := execute(context.Background(), a, []string{"crawl", "Nobody"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization not found")
	assert.Equal(t, 1, closed)
	assert.Empty(t, a.closers)
}
