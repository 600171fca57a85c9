package state

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/oklog/ulid/v2"
)

// stamp prepares meta for a save of value: the ETag is always recomputed,
// a missing SnapshotID gets a fresh ULID and a zero UpdatedAt gets now.
func stamp(meta Meta, value phpfile.Value, now time.Time) (Meta, error) {
	etag, err := contentETag(value)
	if err != nil {
		return Meta{}, err
	}
	out := cloneMeta(meta)
	out.ETag = etag
	if out.SnapshotID == "" {
		out.SnapshotID = ulid.Make().String()
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	return out, nil
}

// contentETag hashes the canonical file rendering of value, so equal
// values always share an ETag whatever their source formatting.
func contentETag(value phpfile.Value) (string, error) {
	content, err := phpfile.RenderFile(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

func cloneMeta(meta Meta) Meta {
	if meta.Extra == nil {
		return meta
	}
	extra := make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		extra[k] = v
	}
	meta.Extra = extra
	return meta
}
