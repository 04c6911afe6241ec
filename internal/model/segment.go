package model

import "sort"

// Shard is one downloadable unit of the classification database: every record
// whose code starts with the shard's prefix.
type Shard struct {
	Segment     string                 `json:"segment"`
	Description string                 `json:"description"`
	Count       int                    `json:"count"`
	Entries     []ClassificationRecord `json:"entries"`
}

// IndexMetadata carries the version stamp and integrity totals for a
// segmentation generation.
type IndexMetadata struct {
	TotalEntries     int    `json:"totalEntries"`
	LastUpdated      string `json:"lastUpdated"`
	SegmentationDate string `json:"segmentationDate"`
	HTSRevision      string `json:"hts_revision"`
}

// SegmentIndex maps classification-code prefixes to shard filenames. Three
// generations of segmentation coexist: the current 3-digit buckets under
// Segments, plus legacy 2-digit and 1-digit maps kept for older shards.
type SegmentIndex struct {
	Segments       map[string]string `json:"segments"`
	TwoDigit       map[string]string `json:"twoDigitSegments"`
	SingleDigit    map[string]string `json:"singleDigitSegments"`
	Metadata       IndexMetadata     `json:"metadata"`
}

// FileForCode resolves the smallest shard covering an 8-digit code, trying
// the newest 3-digit segmentation first, then the legacy 2- and 1-digit maps.
func (idx *SegmentIndex) FileForCode(code string) (string, bool) {
	if len(code) >= 3 {
		if f, ok := idx.Segments[code[:3]]; ok {
			return f, true
		}
	}
	if len(code) >= 2 {
		if f, ok := idx.TwoDigit[code[:2]]; ok {
			return f, true
		}
	}
	if len(code) >= 1 {
		if f, ok := idx.SingleDigit[code[:1]]; ok {
			return f, true
		}
	}
	return "", false
}

// FilesForPrefix returns every shard file that may hold codes starting with
// the given prefix, most granular segmentation first. Prefixes shorter than
// the 3-digit segmentation union across every child shard beneath them; longer
// prefixes resolve to the single covering shard.
func (idx *SegmentIndex) FilesForPrefix(prefix string) []string {
	if prefix == "" {
		return nil
	}
	if len(prefix) == 2 {
		return idx.FilesForChapter(prefix)
	}
	if len(prefix) >= 3 {
		if f, ok := idx.FileForCode(prefix); ok {
			return []string{f}
		}
		return nil
	}

	var files []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, key := range sortedKeysWithPrefix(idx.Segments, prefix) {
		add(idx.Segments[key])
	}
	for _, key := range sortedKeysWithPrefix(idx.TwoDigit, prefix) {
		add(idx.TwoDigit[key])
	}
	if f, ok := idx.SingleDigit[prefix]; ok {
		add(f)
	}
	return files
}

// FilesForChapter returns the shard files covering one 2-digit chapter, used
// by the cache pre-warmer.
func (idx *SegmentIndex) FilesForChapter(chapter string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, key := range sortedKeysWithPrefix(idx.Segments, chapter) {
		if !seen[idx.Segments[key]] {
			seen[idx.Segments[key]] = true
			files = append(files, idx.Segments[key])
		}
	}
	if f, ok := idx.TwoDigit[chapter]; ok && !seen[f] {
		files = append(files, f)
	}
	if len(files) == 0 && len(chapter) > 0 {
		if f, ok := idx.SingleDigit[chapter[:1]]; ok {
			files = append(files, f)
		}
	}
	return files
}

// AllFiles returns every distinct shard filename across all three maps.
func (idx *SegmentIndex) AllFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, m := range []map[string]string{idx.Segments, idx.TwoDigit, idx.SingleDigit} {
		for _, f := range m {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files
}

func sortedKeysWithPrefix(m map[string]string, prefix string) []string {
	var keys []string
	for k := range m {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
