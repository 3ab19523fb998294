// Package cryptox implements the request signing scheme of the media store:
// parameters are serialized in ascending key order as k=v pairs joined with
// '&', the API secret is appended, and the result is hashed.
package cryptox

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/docrelay/internal/common"
)

// Algorithm selects the digest used for signatures.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// ParseAlgorithm maps a config value to an Algorithm. Empty means SHA1.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", SHA1:
		return SHA1, nil
	case SHA256:
		return SHA256, nil
	default:
		return "", fmt.Errorf("unsupported signature algorithm %q", s)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == SHA256 {
		return sha256.New()
	}
	return sha1.New()
}

// ParamSet is the set of parameters bound by a signature.
type ParamSet map[string]any

// Canonical returns the string-to-sign without the secret. Keys are sorted
// ascending; empty values are skipped, as the provider does.
func (p ParamSet) Canonical() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := stringify(p[k])
		if v == "" {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, "&")
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case []string:
		return strings.Join(value, ",")
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// Signer signs parameter sets with a fixed secret.
type Signer struct {
	secret    string
	algorithm Algorithm
}

// NewSigner fails with common.ErrMissingSecret when secret is empty, which
// callers treat as a startup fault.
func NewSigner(secret string, algorithm Algorithm) (*Signer, error) {
	if secret == "" {
		return nil, common.ErrMissingSecret
	}
	if algorithm == "" {
		algorithm = SHA1
	}
	return &Signer{secret: secret, algorithm: algorithm}, nil
}

// Sign returns the lowercase hex digest of the canonical params plus secret.
func (s *Signer) Sign(params ParamSet) string {
	h := s.algorithm.newHash()
	h.Write([]byte(params.Canonical() + s.secret))
	return hex.EncodeToString(h.Sum(nil))
}

// SignParams is the one-shot form of Signer.Sign using SHA1.
func SignParams(params ParamSet, secret string) (string, error) {
	s, err := NewSigner(secret, SHA1)
	if err != nil {
		return "", err
	}
	return s.Sign(params), nil
}
