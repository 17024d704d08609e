package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// RepoInfo is an owner/repo pair identifying a GitHub repository.
type RepoInfo struct {
	Owner string
	Name  string
}

func (r RepoInfo) String() string { return r.Owner + "/" + r.Name }

// scpLikeRemote matches the scp-style shorthand git accepts for SSH
// remotes, e.g. "git@github.com:owner/repo.git": an optional user@,
// a host, a colon, then the path. A URL with an explicit scheme (which
// also contains a colon) is excluded by the caller before this is tried.
var scpLikeRemote = regexp.MustCompile(`^([^@/]+@)?([^:/]+):(.+)$`)

// ParseRepoInfo guesses the GitHub repository owner and name from a git
// remote URL, accepting both the `https://github.com/OWNER/REPO.git` and
// `git@github.com:OWNER/REPO.git` forms.
func ParseRepoInfo(remote string) (RepoInfo, error) {
	normalized := remote
	if !strings.Contains(remote, "://") {
		if m := scpLikeRemote.FindStringSubmatch(remote); m != nil {
			normalized = "ssh://" + m[1] + m[2] + "/" + m[3]
		}
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("parse remote URL: %w", err)
	}

	path := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" {
		return RepoInfo{}, fmt.Errorf("path %q does not name a GitHub repository", path)
	}
	return RepoInfo{Owner: owner, Name: repo}, nil
}
