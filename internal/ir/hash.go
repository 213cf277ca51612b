package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// algorithm change without colliding with stored hashes.
const (
	DomainPipeline = "taxflow/pipeline/v1"
	DomainRecord   = "taxflow/record/v1"
	DomainResource = "taxflow/resource/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PipelineHash identifies a pipeline document by content. Two documents that
// differ only in key order or whitespace hash identically.
func PipelineHash(n Node) (string, error) {
	canonical, err := MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("PipelineHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPipeline, canonical), nil
}

// RecordHash identifies a record snapshot by content.
func RecordHash(snapshot map[string]any) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// ResourceHash identifies an external resource payload by content.
func ResourceHash(payload any) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("ResourceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResource, canonical), nil
}

// MustPipelineHash is like PipelineHash but panics on error.
// Use only in tests or when the document is known to be valid.
func MustPipelineHash(n Node) string {
	h, err := PipelineHash(n)
	if err != nil {
		panic(err)
	}
	return h
}
