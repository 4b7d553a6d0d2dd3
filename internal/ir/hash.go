package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchema = "liftsql/schema/v1"
	DomainQuery  = "liftsql/query/v1"
)

// queryNamespace roots every query key. Changing it invalidates all cached queries.
var queryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/liftsql/query"))

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaRevision hashes a canonical description of a schema.
// desc must be accepted by MarshalCanonical.
func SchemaRevision(desc map[string]any) (string, error) {
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("SchemaRevision: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// QueryKey derives a stable UUIDv5 for a compiled statement under a given
// schema revision. Two compilations of the same definition against the same
// schema revision always produce the same key, so an external cache can
// memoize compiled output per revision.
func QueryKey(revision, statement string, arguments []string) (uuid.UUID, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"revision":  revision,
		"statement": statement,
		"arguments": arguments,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("QueryKey: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(queryNamespace, []byte(hashWithDomain(DomainQuery, canonical))), nil
}
