package blocks

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/compozy/compozy-postgres/pkg/secret"
	"github.com/go-viper/mapstructure/v2"
)

// Record is the serialized form of a block: field name to value. Values
// must be JSON-representable so every store backend can persist them.
type Record = map[string]any

// Block is the capability a struct needs to be persisted as a named block.
// Implementations are plain value holders; the storage machinery lives in
// the Store backends.
type Block interface {
	// BlockTypeSlug returns the stable type identifier used in storage keys.
	BlockTypeSlug() string
	// ToRecord serializes the declared fields. Secret fields are revealed
	// here and nowhere else.
	ToRecord() (Record, error)
	// FromRecord populates the block from a stored record.
	FromRecord(rec Record) error
}

// ErrAlreadyExists is returned by Save when overwrite is false and a block
// of the same type and name is already stored.
var ErrAlreadyExists = errors.New("block already exists")

// Save serializes the block and stores it under the given name. With
// overwrite=false an existing block of the same type and name is an error.
// The existence check and the write are separate store calls, so
// overwrite=false does not guarantee uniqueness under concurrent savers;
// callers needing that must serialize saves themselves.
// Storage failures propagate unchanged.
func Save(ctx context.Context, store Store, name string, b Block, overwrite bool) error {
	if name == "" {
		return fmt.Errorf("blocks: name is required")
	}
	key := Key{Slug: b.BlockTypeSlug(), Name: name}
	if !overwrite {
		_, _, err := store.Get(ctx, key)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, key.Slug, key.Name)
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	rec, err := b.ToRecord()
	if err != nil {
		return fmt.Errorf("blocks: serialize %s/%s: %w", key.Slug, key.Name, err)
	}
	_, err = store.Put(ctx, key, rec)
	return err
}

// Load retrieves the named block of b's type and populates b from it.
// A missing name surfaces as ErrNotFound, unchanged.
func Load(ctx context.Context, store Store, name string, b Block) error {
	if name == "" {
		return fmt.Errorf("blocks: name is required")
	}
	rec, _, err := store.Get(ctx, Key{Slug: b.BlockTypeSlug(), Name: name})
	if err != nil {
		return err
	}
	return b.FromRecord(rec)
}

// secretStringDecodeHook converts plain strings into secret.String fields
// when decoding records back into block structs.
func secretStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(secret.String("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return secret.String(v), nil
	case []byte:
		return secret.String(v), nil
	default:
		return data, nil
	}
}

// DecodeRecord decodes a record into the given block struct using the
// shared hooks (secret strings, weak typing for numeric JSON round-trips).
func DecodeRecord(rec Record, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(secretStringDecodeHook),
	})
	if err != nil {
		return fmt.Errorf("blocks: build decoder: %w", err)
	}
	if err := decoder.Decode(rec); err != nil {
		return fmt.Errorf("blocks: decode record: %w", err)
	}
	return nil
}
