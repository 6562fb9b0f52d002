package fl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceCanonicalWriteFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(StoreConfig{
		ModelsDir:      dir,
		BootstrapEmpty: true,
		InitialParams:  Params{W: []float64{0, 0}},
	})
	require.NoError(t, err)

	_, err = s.Replace(Params{W: []float64{1, 1}})
	require.NoError(t, err)
	before := s.Current()

	errDisk := errors.New("disk full")
	canonical := s.modelPath()
	writeFile = func(path string, data []byte) error {
		if path == canonical {
			return errDisk
		}

		return writeFileAtomic(path, data)
	}
	t.Cleanup(func() { writeFile = writeFileAtomic })

	_, err = s.Replace(Params{W: []float64{9, 9}})
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, errDisk)

	// The backup of the outgoing version was written before the failure.
	_, err = os.Stat(filepath.Join(dir, DefaultModelName+backupInfix+"1.json"))
	require.NoError(t, err)

	assert.Equal(t, before.Version, s.Current().Version)
	assert.Equal(t, before.UpdateCount, s.Current().UpdateCount)
	assert.Equal(t, before.Params.W, s.Current().Params.W)

	writeFile = writeFileAtomic
	reopened, err := NewFileStore(StoreConfig{ModelsDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "v1.0.1", reopened.Current().Version)
	assert.Equal(t, []float64{1, 1}, reopened.Current().Params.W)

	next, err := s.Replace(Params{W: []float64{2, 2}})
	require.NoError(t, err)
	assert.Equal(t, "v1.0.2", next.Version)
}
