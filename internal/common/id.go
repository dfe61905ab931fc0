package common

import (
	"fmt"
	"regexp"
	"strings"
)

// Article ids are generated locally; the local store is the identity
// authority and the mirror never assigns ids to records that originate here.
const (
	ArticleIDPrefix    = "ART-"
	articleIDSuffixLen = 12
)

var articleIDPattern = regexp.MustCompile(`^ART-[a-z0-9]{12}$`)

// NewArticleID returns a fresh article id: the fixed prefix plus a random
// alphanumeric suffix. Uniqueness against the local store is the caller's
// responsibility. It panics if the system randomness source fails.
func NewArticleID() string {
	suffix, err := MakeRandAlphanum(articleIDSuffixLen)
	if err != nil {
		panic(err)
	}
	return ArticleIDPrefix + suffix
}

// ValidArticleID reports whether s matches the article id format.
func ValidArticleID(s string) bool {
	return articleIDPattern.MatchString(s)
}

// CheckArticleID returns ErrInvalidArticleID unless s matches the format.
func CheckArticleID(s string) error {
	if !ValidArticleID(s) {
		return fmt.Errorf("%w: %q", ErrInvalidArticleID, s)
	}
	return nil
}

// IsRemoteURL reports whether an image path already refers to uploaded
// remote storage rather than a local file awaiting upload.
func IsRemoteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
