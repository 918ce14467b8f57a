package cmdutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/persistence"
)

func TestAddStoreFlagsDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	flags := AddStoreFlags(cmd, appcontext.Settings{})
	assert.Equal(t, constants.DatabaseFileName, flags.Path)
	assert.Empty(t, flags.Format)

	cmd = &cobra.Command{Use: "test"}
	flags = AddStoreFlags(cmd, appcontext.Settings{Database: "favs.db", Store: "sqlite"})
	assert.Equal(t, "favs.db", flags.Path)
	assert.Equal(t, "sqlite", flags.Format)
}

func TestStoreFlagsOpen(t *testing.T) {
	dir := t.TempDir()

	store, err := (&StoreFlags{Path: filepath.Join(dir, "favs.yaml")}).Open()
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, persistence.FormatYAML, store.Format())

	_, err = (&StoreFlags{Path: filepath.Join(dir, "favs.json"), Format: "csv"}).Open()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestCompleteValues(t *testing.T) {
	values, directive := CompleteValues(StoreFormats()...)(nil, nil, "")
	assert.Equal(t, []string{"json", "yaml", "sqlite"}, values)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}
