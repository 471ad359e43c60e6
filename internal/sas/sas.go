// Package sas mints time-bounded signed-access tokens for blob containers.
// Signing is a pure local operation over the storage account key; no network
// calls are made and the underlying key never leaves the process.
package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/videoseek/internal/domain"
)

// signedVersion is the storage service version the string-to-sign targets.
const signedVersion = "2020-12-06"

// permissions grants read+list on the container, in the service-mandated order.
const permissions = "rl"

// DefaultValidity is the token lifetime when none is configured. The storage
// layer rejects the token after expiry; callers must mint a fresh token per
// playback rather than cache a signed URL across this window.
const DefaultValidity = time.Hour

// Credentials identify the storage account used for signing.
type Credentials struct {
	AccountName string
	AccountKey  string // base64-encoded
}

// Signer produces container-scoped signed-access query strings.
type Signer struct {
	cred      Credentials
	container string
	now       func() time.Time
}

// NewSigner creates a signer for the given account and container.
func NewSigner(cred Credentials, container string) *Signer {
	return &Signer{cred: cred, container: container, now: time.Now}
}

// SignContainer mints a read+list token valid from now until now+validFor
// (DefaultValidity when validFor <= 0). The result is a bare query-string
// fragment, without a leading '?'. Fails only on malformed credentials;
// such a failure is not retryable without new credentials.
func (s *Signer) SignContainer(validFor time.Duration) (string, error) {
	if s.cred.AccountName == "" || s.container == "" {
		return "", fmt.Errorf("%w: account name and container are required", domain.ErrSigning)
	}

	key, err := base64.StdEncoding.DecodeString(s.cred.AccountKey)
	if err != nil {
		return "", fmt.Errorf("%w: account key is not valid base64: %w", domain.ErrSigning, err)
	}

	if validFor <= 0 {
		validFor = DefaultValidity
	}

	start := s.now().UTC()
	expiry := start.Add(validFor)
	st := start.Format("2006-01-02T15:04:05Z")
	se := expiry.Format("2006-01-02T15:04:05Z")

	// Canonicalized resource and field order follow the 2020-12-06 service
	// SAS string-to-sign for blob containers.
	canonicalizedResource := "/blob/" + s.cred.AccountName + "/" + s.container
	stringToSign := strings.Join([]string{
		permissions,
		st,
		se,
		canonicalizedResource,
		"", // signed identifier
		"", // signed IP
		"", // signed protocol
		signedVersion,
		"c", // signed resource: container
		"",  // snapshot time
		"",  // encryption scope
		"",  // cache-control
		"",  // content-disposition
		"",  // content-encoding
		"",  // content-language
		"",  // content-type
	}, "\n")

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	q := url.Values{}
	q.Set("sv", signedVersion)
	q.Set("st", st)
	q.Set("se", se)
	q.Set("sr", "c")
	q.Set("sp", permissions)
	q.Set("sig", sig)

	return q.Encode(), nil
}
