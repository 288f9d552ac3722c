// Package logfields defines canonical log field names so keys stay
// stable across packages and log ingestion schemas.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyBuildID  = "build_id"
	KeyPath     = "path"
	KeyArtifact = "artifact"
	KeyDepth    = "depth"
	KeyOutcome  = "outcome"
	KeyDuration = "duration"
	KeyURL      = "url"
	KeyBranch   = "branch"
	KeyDir      = "dir"
	KeyError    = "error"
)

// Granular helpers returning slog.Attr so callers can compose them with
// ad hoc fields.
func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Artifact(name string) slog.Attr     { return slog.String(KeyArtifact, name) }
func Depth(d int) slog.Attr              { return slog.Int(KeyDepth, d) }
func Outcome(o string) slog.Attr         { return slog.String(KeyOutcome, o) }
func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr          { return slog.String(KeyBranch, b) }
func Dir(d string) slog.Attr             { return slog.String(KeyDir, d) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
