package postgres

import (
	"context"

	"github.com/compozy/compozy-postgres/blocks"
)

// DefaultValue is the value a ValueBlock holds when none is provided.
const DefaultValue = "The default value"

const (
	valueBlockSlug  = "postgres"
	sampleBlockName = "sample-block"
	sampleValue     = "A sample value"
)

// ValueBlock is a sample block that holds a single string value. It exists
// so integrations have a minimal persistable block to start from.
type ValueBlock struct {
	Value string `json:"value"`
}

// NewValueBlock constructs a ValueBlock holding the default value.
func NewValueBlock() *ValueBlock {
	return &ValueBlock{Value: DefaultValue}
}

// BlockTypeSlug implements blocks.Block.
func (b *ValueBlock) BlockTypeSlug() string { return valueBlockSlug }

// ToRecord implements blocks.Block.
func (b *ValueBlock) ToRecord() (blocks.Record, error) {
	return blocks.Record{"value": b.Value}, nil
}

// FromRecord implements blocks.Block. An absent value falls back to the
// declared default so the field is never empty.
func (b *ValueBlock) FromRecord(rec blocks.Record) error {
	if err := blocks.DecodeRecord(rec, b); err != nil {
		return err
	}
	if b.Value == "" {
		b.Value = DefaultValue
	}
	return nil
}

// SeedValueForExample stores a ValueBlock with a fixed sample value under a
// fixed example name, overwriting any existing block of that name. Storage
// errors propagate unchanged.
func SeedValueForExample(ctx context.Context, store blocks.Store) error {
	block := &ValueBlock{Value: sampleValue}
	return blocks.Save(ctx, store, sampleBlockName, block, true)
}
