package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/internal/build"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "gqlgate version "+build.Version)
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	require.Equal(t, "gqlgate", root.Use)
}
