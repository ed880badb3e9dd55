package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// The two connection-string shapes reaching the same Supabase database. The
// pooled form multiplexes connections through the platform pooler and is
// preferred for serverless runtimes; the direct form is the fallback when the
// pooler host cannot be resolved.

// PooledConnString builds the pooler-routed connection string.
func PooledConnString(ref, password, poolerHost string) string {
	return fmt.Sprintf("postgres://postgres.%s:%s@%s:6543/postgres?pgbouncer=true",
		ref, encodePassword(password), poolerHost)
}

// DirectConnString builds the direct connection string.
func DirectConnString(ref, password string) string {
	return fmt.Sprintf("postgres://postgres:%s@db.%s.supabase.co:5432/postgres",
		encodePassword(password), ref)
}

// BuildConnString resolves the pooler host and returns the pooled form, or
// the direct form when resolution fails. With no password it returns "" and
// downstream migration is skipped.
func BuildConnString(ctx context.Context, db DatabasePlatform, ref, password string) string {
	if password == "" {
		return ""
	}

	host, err := db.PoolerHost(ctx, ref)
	if err != nil || host == "" {
		slog.Warn("Pooler host resolution failed, falling back to direct connection",
			"layer", "pipeline",
			"operation", "build_conn_string",
			"project_ref", ref,
			"error", err)
		return DirectConnString(ref, password)
	}
	return PooledConnString(ref, password, host)
}

// encodePassword percent-encodes every reserved character, including the
// ones url.UserPassword would leave alone ('!' and friends), so the password
// survives both URL shapes verbatim.
func encodePassword(password string) string {
	return strings.ReplaceAll(url.QueryEscape(password), "+", "%20")
}
