package skilldata_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/architecturizr/internal/config"
	"github.com/dusk-indust/architecturizr/internal/pipeline"
	"github.com/dusk-indust/architecturizr/internal/skilldata"
)

func extract(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	err := fs.WalkDir(skilldata.StarterFS, skilldata.StarterRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(skilldata.StarterRoot, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := skilldata.StarterFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func TestStarterFS_Files(t *testing.T) {
	for _, name := range []string{"architecturizr.yml", "catalogue.yaml", "flows/checkout.txt", ".env.example"} {
		_, err := fs.Stat(skilldata.StarterFS, skilldata.StarterRoot+"/"+name)
		assert.NoError(t, err, name)
	}
}

func TestStarterProject_Builds(t *testing.T) {
	root := extract(t)

	pc, err := config.Load(root)
	require.NoError(t, err)
	cfg := pipeline.FromProject(root, *pc)

	res, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, res.Processes, 2)
	assert.NotEmpty(t, res.Relationships.Implied)
	assert.Len(t, res.Files, 3)
}
