package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "migrate", "suggest"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "symbiose", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSuggestCommand_Flags(t *testing.T) {
	for _, name := range []string{"user", "persist", "search", "status", "min-score", "max-distance", "sort", "limit", "include-ignored", "tags", "output"} {
		assert.NotNil(t, suggestCmd.Flags().Lookup(name), "suggest command should have --%s flag", name)
	}
	assert.Equal(t, "table", suggestCmd.Flags().Lookup("output").DefValue)
	assert.Equal(t, "o", suggestCmd.Flags().Lookup("output").Shorthand)
}
