package blocks

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// writeStableJSON writes a canonical JSON representation of v into b.
// Objects have keys sorted recursively so equal records always produce
// equal bytes. Arrays preserve order.
func writeStableJSON(b *bytes.Buffer, v any) {
	switch t := v.(type) {
	case Record:
		writeStableMap(b, t)
	case []any:
		writeStableSlice(b, t)
	default:
		bs, err := json.Marshal(t)
		if err != nil {
			b.WriteString("null")
			return
		}
		b.Write(bs)
	}
}

func writeStableMap(b *bytes.Buffer, m Record) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err == nil {
			b.Write(kb)
		} else {
			b.WriteString("\"")
			b.WriteString(k)
			b.WriteString("\"")
		}
		b.WriteByte(':')
		writeStableJSON(b, m[k])
	}
	b.WriteByte('}')
}

func writeStableSlice(b *bytes.Buffer, s []any) {
	b.WriteByte('[')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		writeStableJSON(b, e)
	}
	b.WriteByte(']')
}

// StableJSONBytes returns the canonical JSON bytes for a record.
func StableJSONBytes(rec Record) []byte {
	var b bytes.Buffer
	writeStableJSON(&b, rec)
	return b.Bytes()
}

// ETagFromRecord returns a deterministic SHA-256 hex digest of the
// canonical JSON form of rec, used to fingerprint stored blocks.
func ETagFromRecord(rec Record) string {
	return ETagFromBytes(StableJSONBytes(rec))
}

// ETagFromBytes fingerprints already-serialized canonical JSON, for stores
// that keep the serialized form around.
func ETagFromBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
