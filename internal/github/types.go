package github

import (
	"strings"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/normalization"
)

// OwnerKind selects whether an account name is looked up as a user or an organization.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerOrg  OwnerKind = "org"
)

var ownerKindNormalizer = normalization.NewNormalizer(map[string]OwnerKind{
	"user":         OwnerUser,
	"users":        OwnerUser,
	"org":          OwnerOrg,
	"orgs":         OwnerOrg,
	"organization": OwnerOrg,
}, "")

// ParseOwnerKind normalizes raw into an OwnerKind.
func ParseOwnerKind(raw string) (OwnerKind, error) {
	return ownerKindNormalizer.NormalizeWithError(raw)
}

// Label returns the human-readable noun for messages ("User" or "Organization").
func (k OwnerKind) Label() string {
	if k == OwnerOrg {
		return "Organization"
	}
	return "User"
}

// Repository is a public repository as listed by the REST API.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// EntryType is the kind of a directory entry.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDir       EntryType = "dir"
	EntrySymlink   EntryType = "symlink"
	EntrySubmodule EntryType = "submodule"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name   string    `json:"name"`
	Path   string    `json:"path"`
	SHA    string    `json:"sha"`
	Type   EntryType `json:"type"`
	Size   int       `json:"size"`
	APIURL string    `json:"url"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Type == EntryDir }

// File is a file body with its content already decoded.
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// lessEntry orders directories before everything else, then by name
// case-insensitively, falling back to the raw name for stability.
func lessEntry(a, b Entry) int {
	if a.IsDir() != b.IsDir() {
		if a.IsDir() {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
