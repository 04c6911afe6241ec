package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *SegmentIndex {
	return &SegmentIndex{
		Segments: map[string]string{
			"850": "tariff-850.json",
			"851": "tariff-851.json",
			"854": "tariff-854.json",
			"390": "tariff-390.json",
		},
		TwoDigit: map[string]string{
			"84": "tariff-84.json",
			"87": "tariff-87.json",
		},
		SingleDigit: map[string]string{
			"8": "tariff-8.json",
			"3": "tariff-3.json",
		},
		Metadata: IndexMetadata{
			TotalEntries:     12000,
			SegmentationDate: "2025-07-01T00:00:00Z",
			HTSRevision:      "2025 Revision 13",
		},
	}
}

func TestFileForCode(t *testing.T) {
	idx := testIndex()

	tests := []struct {
		name string
		code string
		want string
		ok   bool
	}{
		{name: "three digit segment wins", code: "85411000", want: "tariff-854.json", ok: true},
		{name: "falls back to two digit", code: "84212100", want: "tariff-84.json", ok: true},
		{name: "falls back to single digit", code: "88021100", want: "tariff-8.json", ok: true},
		{name: "no covering shard", code: "72011000", ok: false},
		{name: "empty code", code: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.FileForCode(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilesForPrefix(t *testing.T) {
	idx := testIndex()

	t.Run("single digit unions children granular first", func(t *testing.T) {
		files := idx.FilesForPrefix("8")
		require.Equal(t, []string{
			"tariff-850.json",
			"tariff-851.json",
			"tariff-854.json",
			"tariff-84.json",
			"tariff-87.json",
			"tariff-8.json",
		}, files)
	})

	t.Run("two digit prefix unions its chapter", func(t *testing.T) {
		assert.Equal(t, []string{
			"tariff-850.json",
			"tariff-851.json",
			"tariff-854.json",
		}, idx.FilesForPrefix("85"))
		assert.Equal(t, []string{"tariff-84.json"}, idx.FilesForPrefix("84"))
	})

	t.Run("longer prefix resolves one shard", func(t *testing.T) {
		assert.Equal(t, []string{"tariff-854.json"}, idx.FilesForPrefix("8541"))
		assert.Equal(t, []string{"tariff-84.json"}, idx.FilesForPrefix("8421"))
	})

	t.Run("uncovered prefix yields nothing", func(t *testing.T) {
		assert.Empty(t, idx.FilesForPrefix("72"))
		assert.Empty(t, idx.FilesForPrefix(""))
	})
}

func TestFilesForChapter(t *testing.T) {
	idx := testIndex()

	assert.Equal(t, []string{"tariff-850.json", "tariff-851.json", "tariff-854.json"},
		idx.FilesForChapter("85"))
	assert.Equal(t, []string{"tariff-84.json"}, idx.FilesForChapter("84"))
	// Chapters with no segment of their own fall back to the 1-digit map.
	assert.Equal(t, []string{"tariff-8.json"}, idx.FilesForChapter("88"))
	assert.Equal(t, []string{"tariff-390.json"}, idx.FilesForChapter("39"))
}

func TestAllFiles(t *testing.T) {
	files := testIndex().AllFiles()
	assert.Len(t, files, 8)
	assert.Contains(t, files, "tariff-850.json")
	assert.Contains(t, files, "tariff-8.json")
}
