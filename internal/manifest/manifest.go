// Package manifest loads the bundle context a render pass exposes to
// pages: the chunk-to-filename asset map and the opaque stats document.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Bundle carries the build context shared by every rendered page.
type Bundle struct {
	// Assets maps chunk names to emitted filenames.
	Assets map[string]string
	// Stats is the raw stats document, passed through untouched.
	Stats json.RawMessage
}

// Load reads the optional asset manifest and stats documents. Empty
// paths yield an empty bundle, so callers need no special casing.
func Load(assetsPath, statsPath string) (*Bundle, error) {
	b := &Bundle{Assets: map[string]string{}}
	if assetsPath != "" {
		assets, err := loadAssets(assetsPath)
		if err != nil {
			return nil, err
		}
		b.Assets = assets
	}
	if statsPath != "" {
		raw, err := os.ReadFile(statsPath)
		if err != nil {
			return nil, fmt.Errorf("read stats %s: %w", statsPath, err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("stats %s is not valid JSON", statsPath)
		}
		b.Stats = raw

		// Stats documents usually embed the chunk map; use it when no
		// separate asset manifest was given.
		if len(b.Assets) == 0 {
			if assets := assetsFromStats(raw); len(assets) > 0 {
				b.Assets = assets
			}
		}
	}
	return b, nil
}

// loadAssets accepts either a flat {"chunk": "file"} object or a full
// stats document carrying assetsByChunkName.
func loadAssets(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset manifest %s: %w", path, err)
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	if assets := assetsFromStats(raw); assets != nil {
		return assets, nil
	}
	return nil, fmt.Errorf("asset manifest %s: expected a chunk-to-file object or a stats document", path)
}

// assetsFromStats extracts assetsByChunkName from a stats document.
// Chunks that emit several files (sourcemaps) list an array; the first
// entry is the chunk's primary file.
func assetsFromStats(raw []byte) map[string]string {
	var doc struct {
		AssetsByChunkName map[string]any `json:"assetsByChunkName"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.AssetsByChunkName) == 0 {
		return nil
	}
	assets := make(map[string]string, len(doc.AssetsByChunkName))
	for chunk, v := range doc.AssetsByChunkName {
		switch val := v.(type) {
		case string:
			assets[chunk] = val
		case []any:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok {
					assets[chunk] = s
				}
			}
		}
	}
	return assets
}
