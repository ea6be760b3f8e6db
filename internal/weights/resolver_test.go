package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
)

func TestDefaultCatalog_Order(t *testing.T) {
	want := []string{
		"yolox_x_coco.pth",
		"yolox_l_coco.pth",
		"yolox_m_coco.pth",
		"yolox_s_coco.pth",
		"yolox_x.pth",
		"yolox_l.pth",
		"yolox_m.pth",
		"yolox_s.pth",
	}
	if diff := cmp.Diff(want, DefaultCatalog().Filenames()); diff != "" {
		t.Errorf("catalog order mismatch (-want +got):\n%s", diff)
	}

	for i, e := range DefaultCatalog().Entries() {
		assert.Equal(t, i, e.Rank, "rank of %s", e.Filename)
		assert.Equal(t, i < 4, e.COCO, "COCO flag of %s", e.Filename)
	}
}

func TestCatalog_EntriesIsACopy(t *testing.T) {
	c := DefaultCatalog()
	entries := c.Entries()
	entries[0].Filename = "mutated.pth"
	assert.Equal(t, "yolox_x_coco.pth", c.Entries()[0].Filename)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog(Spec{"a.pth", "a", false}, Spec{"a.pth", "a", true})
	assert.Error(t, err, "duplicate filenames")

	_, err = NewCatalog(Spec{"../a.pth", "a", false})
	assert.Error(t, err, "path separators")
}

func TestResolve(t *testing.T) {
	const dir = "/work/pretrained"

	tests := []struct {
		name      string
		files     []string
		wantFound bool
		wantFile  string
		wantBase  string
	}{
		{
			name:      "empty directory",
			files:     nil,
			wantFound: false,
		},
		{
			name:      "only the lowest priority entry",
			files:     []string{"yolox_s.pth"},
			wantFound: true,
			wantFile:  "yolox_s.pth",
			wantBase:  "yolox_s",
		},
		{
			name:      "higher priority wins over lower",
			files:     []string{"yolox_s.pth", "yolox_m_coco.pth", "yolox_x.pth"},
			wantFound: true,
			wantFile:  "yolox_m_coco.pth",
			wantBase:  "yolox_m",
		},
		{
			name:      "coco small beats generic large",
			files:     []string{"yolox_x.pth", "yolox_s_coco.pth"},
			wantFound: true,
			wantFile:  "yolox_s_coco.pth",
			wantBase:  "yolox_s",
		},
		{
			name:      "unrelated files are ignored",
			files:     []string{"README.md", "yolov8n.pt"},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := fsutil.NewMemoryFileSystem()
			require.NoError(t, mfs.MkdirAll(dir, 0755))
			for _, f := range tt.files {
				require.NoError(t, mfs.WriteFile(filepath.Join(dir, f), []byte("w"), 0644))
			}

			got, found := Resolve(mfs, dir, DefaultCatalog())
			require.Equal(t, tt.wantFound, found)
			if !found {
				assert.Equal(t, Resolved{}, got)
				return
			}
			assert.Equal(t, filepath.Join(dir, tt.wantFile), got.Path)
			assert.Equal(t, tt.wantBase, got.BaseModel)
			assert.Equal(t, tt.wantFile, got.Name())
		})
	}
}

func TestResolve_MissingDirectory(t *testing.T) {
	_, found := Resolve(fsutil.OSFileSystem{}, filepath.Join(t.TempDir(), "does-not-exist"), DefaultCatalog())
	assert.False(t, found)
}

func TestResolve_DirectoryNamedLikeWeights(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "yolox_x_coco.pth"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yolox_l.pth"), []byte("w"), 0644))

	got, found := Resolve(fsutil.OSFileSystem{}, dir, DefaultCatalog())
	require.True(t, found)
	assert.Equal(t, "yolox_l.pth", got.Name())
}

func TestResolved_Stem(t *testing.T) {
	r := Resolved{Path: "/p/yolox_x_coco.pth"}
	assert.Equal(t, "yolox_x_coco", r.Stem())
	assert.Equal(t, "yolox_x_coco.pth", r.Name())
}
