package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/server/models"
)

const documentSuffix = ".pdf"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9]`)

func sanitizeKeyPart(s string) string {
	return unsafeKeyChars.ReplaceAllString(s, "_")
}

// DeriveStorageKey builds "{category}/{emailLocal}_{stem}_{unixSeconds}".
// The email local part and the filename stem keep only ASCII letters and
// digits; everything else becomes '_'. Two calls within the same second for
// the same inputs return the same key.
func DeriveStorageKey(category models.Category, filename, email string, now time.Time) string {
	stem := strings.TrimSuffix(filename, documentSuffix)
	local, _, _ := strings.Cut(email, "@")
	return fmt.Sprintf("%s/%s_%s_%d", category, sanitizeKeyPart(local), sanitizeKeyPart(stem), now.Unix())
}
