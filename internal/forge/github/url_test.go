package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoInfo(t *testing.T) {
	tests := []struct {
		name string
		give string
		want RepoInfo
	}{
		{"https", "https://github.com/k4r01q/rung.git", RepoInfo{"k4r01q", "rung"}},
		{"https no suffix", "https://github.com/k4r01q/rung", RepoInfo{"k4r01q", "rung"}},
		{"ssh scp-like", "git@github.com:k4r01q/rung.git", RepoInfo{"k4r01q", "rung"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoInfo(tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepoInfo_Invalid(t *testing.T) {
	_, err := ParseRepoInfo("https://github.com/")
	assert.Error(t, err)
}
