package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compozy/compozy-postgres/blocks"
	"github.com/compozy/compozy-postgres/pkg/secret"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const credentialsSlug = "postgres-credentials"

// Credentials is a block holding PostgreSQL connection parameters. Every
// field is optional: nothing is validated locally, and absent or malformed
// parameters surface as driver-level connection failures. Callers that want
// local checks must opt in via Validate.
type Credentials struct {
	// Username is forwarded as the driver's "user" parameter.
	Username *string `json:"username,omitempty"`
	// Password is never logged or serialized in plaintext; it is revealed
	// only while assembling the connection string.
	Password *secret.String `json:"password,omitempty"`
	Database *string        `json:"database,omitempty" validate:"required"`
	Host     *string        `json:"host,omitempty"     validate:"required"`
	// Port is stored as text and passed through to the driver as-is.
	Port *string `json:"port,omitempty" validate:"required"`
	// ConnectArgs are forwarded verbatim as additional top-level connection
	// parameters (for example sslmode or application_name).
	ConnectArgs map[string]any `json:"connect_args,omitempty"`
}

// BlockTypeSlug implements blocks.Block.
func (c *Credentials) BlockTypeSlug() string { return credentialsSlug }

// ToRecord implements blocks.Block. Absent fields are omitted from the
// record. The password plaintext is revealed here so the stored record
// round-trips; stores own at-rest protection.
func (c *Credentials) ToRecord() (blocks.Record, error) {
	rec := blocks.Record{}
	if c.Username != nil {
		rec["username"] = *c.Username
	}
	if c.Password != nil {
		rec["password"] = c.Password.Reveal()
	}
	if c.Database != nil {
		rec["database"] = *c.Database
	}
	if c.Host != nil {
		rec["host"] = *c.Host
	}
	if c.Port != nil {
		rec["port"] = *c.Port
	}
	if len(c.ConnectArgs) > 0 {
		args := make(map[string]any, len(c.ConnectArgs))
		for k, v := range c.ConnectArgs {
			args[k] = v
		}
		rec["connect_args"] = args
	}
	return rec, nil
}

// FromRecord implements blocks.Block.
func (c *Credentials) FromRecord(rec blocks.Record) error {
	*c = Credentials{}
	return blocks.DecodeRecord(rec, c)
}

// Validate is the opt-in strict variant: it requires database, host, and
// port to be present. It is never called implicitly; the documented
// contract stays "no local validation, let the driver reject".
func (c *Credentials) Validate() error {
	return validator.New().Struct(c)
}

// ConnConfig parses the stored parameters into a pgx connection config.
// Parse failures (for example a malformed port) come from the driver and
// are returned unchanged.
func (c *Credentials) ConnConfig() (*pgx.ConnConfig, error) {
	return pgx.ParseConfig(c.connString())
}

// GetConnection dials PostgreSQL with the stored parameters and returns the
// driver connection. Construction is synchronous; the caller owns the
// connection and must Close it. Driver failures are returned unchanged,
// with no retry and no added context.
func (c *Credentials) GetConnection(ctx context.Context) (*pgx.Conn, error) {
	cfg, err := c.ConnConfig()
	if err != nil {
		return nil, err
	}
	return pgx.ConnectConfig(ctx, cfg)
}

// GetPool builds a pgxpool pool from the stored parameters. Pooling
// behavior belongs entirely to the driver; this forwards the same
// parameters GetConnection does. The caller owns the pool.
func (c *Credentials) GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.connString())
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// connString assembles a keyword/value conn string from the present fields.
// ConnectArgs entries become independent top-level parameters, appended in
// sorted order for determinism. The password is revealed only here.
func (c *Credentials) connString() string {
	parts := make([]string, 0, 5+len(c.ConnectArgs))
	if c.Host != nil {
		parts = append(parts, "host="+quoteConnValue(*c.Host))
	}
	if c.Port != nil {
		parts = append(parts, "port="+quoteConnValue(*c.Port))
	}
	if c.Username != nil {
		parts = append(parts, "user="+quoteConnValue(*c.Username))
	}
	if c.Password != nil {
		parts = append(parts, "password="+quoteConnValue(c.Password.Reveal()))
	}
	if c.Database != nil {
		parts = append(parts, "dbname="+quoteConnValue(*c.Database))
	}
	keys := make([]string, 0, len(c.ConnectArgs))
	for k := range c.ConnectArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+quoteConnValue(stringifyArg(c.ConnectArgs[k])))
	}
	return strings.Join(parts, " ")
}

// quoteConnValue quotes a conn-string value per the libpq keyword/value
// rules: empty values and values containing spaces, quotes, or backslashes
// are single-quoted with backslash escapes.
func quoteConnValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func stringifyArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case secret.String:
		return t.Reveal()
	default:
		return fmt.Sprintf("%v", t)
	}
}
