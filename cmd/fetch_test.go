package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTagCandidates(t *testing.T) {
	assert.Equal(t, []string{"v1.2.3", "1.2.3", "v1.2"}, generateTagCandidates("v1.2.3"))
	assert.Equal(t, []string{"1.2.3", "v1.2.3", "1.2", "v1.2"}, generateTagCandidates("1.2.3"))
	assert.Equal(t, []string{"latest", "vlatest"}, generateTagCandidates(" latest "))
	assert.Nil(t, generateTagCandidates(""))
}

func TestDropLast(t *testing.T) {
	assert.Equal(t, "1.21", dropLast("1.21.50"))
	assert.Equal(t, "1", dropLast("1"))
}

// newReleaseServer fakes the three GitHub endpoints fetch touches. Only the
// "1.2" tag exists.
func newReleaseServer(t *testing.T, body string) *github.Client {
	t.Helper()
	mux := http.NewServeMux()
	release := `{"tag_name":"%s","assets":[
		{"id":7,"name":"notes.txt","size":3},
		{"id":9,"name":"trial.toml","size":%d}]}`
	mux.HandleFunc("/repos/o/r/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, release, "1.2", len(body))
	})
	mux.HandleFunc("/repos/o/r/releases/tags/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/releases/tags/1.2" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, release, "1.2", len(body))
	})
	mux.HandleFunc("/repos/o/r/releases/assets/9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = u
	return client
}

func TestFindReleaseAsset(t *testing.T) {
	client := newReleaseServer(t, trialSet)
	ctx := context.Background()

	asset, tag, err := findReleaseAsset(ctx, client, "o", "r", "", ".toml")
	require.NoError(t, err)
	assert.Equal(t, "1.2", tag)
	assert.Equal(t, int64(9), asset.GetID())

	asset, tag, err = findReleaseAsset(ctx, client, "o", "r", "1.2.7", ".toml")
	require.NoError(t, err)
	assert.Equal(t, "1.2", tag)
	assert.Equal(t, "trial.toml", asset.GetName())

	_, _, err = findReleaseAsset(ctx, client, "o", "r", "", ".yaml")
	assert.ErrorContains(t, err, "no asset found")

	_, _, err = findReleaseAsset(ctx, client, "o", "r", "9.9", ".toml")
	assert.Error(t, err)
}

func TestFetchPatchSet(t *testing.T) {
	client := newReleaseServer(t, trialSet)
	dir := t.TempDir()

	dest, err := fetchPatchSet(context.Background(), client, fetchOptions{
		owner:  "o",
		repo:   "r",
		suffix: ".toml",
		output: dir,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trial.toml"), dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, trialSet, string(got))
}

func TestFetchPatchSetInvalid(t *testing.T) {
	client := newReleaseServer(t, "not = [valid")
	dest := filepath.Join(t.TempDir(), "set.toml")

	_, err := fetchPatchSet(context.Background(), client, fetchOptions{
		owner:  "o",
		repo:   "r",
		suffix: ".toml",
		output: dest,
	})
	assert.Error(t, err)
}
