package tmx

import (
	"context"
	"fmt"
	"strings"
)

// ConflictDecision is the user's choice when an upload targets a filename
// already taken by a different artifact in the same folder.
type ConflictDecision int

const (
	// DecisionOverwrite replaces the existing object in place.
	DecisionOverwrite ConflictDecision = iota
	// DecisionNewVersion keeps both: the proposed revision is advanced by
	// one step before the upload continues.
	DecisionNewVersion
	// DecisionCancel aborts the upload with no side effects.
	DecisionCancel
)

// ConflictResolver obtains a decision for a name collision. The CLI
// implementation prompts the user; non-interactive callers can return a
// fixed decision.
type ConflictResolver interface {
	Resolve(existing ObjectInfo) (ConflictDecision, error)
}

// ConflictResolverFunc adapts a function to the ConflictResolver interface.
type ConflictResolverFunc func(existing ObjectInfo) (ConflictDecision, error)

func (f ConflictResolverFunc) Resolve(existing ObjectInfo) (ConflictDecision, error) {
	return f(existing)
}

// DetectCollision looks for an object in the target folder whose final
// path component equals filename. The listing is non-recursive: an object
// with the same name in a deeper folder is not a collision. Returns nil
// when the name is free.
func DetectCollision(ctx context.Context, gw StoreGateway, bucket, folderPrefix, filename string) (*ObjectInfo, error) {
	objects, err := gw.ListObjects(ctx, bucket, folderPrefix, false)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", bucket, folderPrefix, err)
	}

	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, KeySeparator) {
			continue // folder entry
		}
		if _, name := SplitObjectKey(obj.Key); name == filename {
			o := obj
			return &o, nil
		}
	}
	return nil, nil
}
