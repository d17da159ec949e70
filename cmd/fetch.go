package cmd

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v80/github"
	"github.com/spf13/cobra"

	"sigpatch/internal/patchset"
)

type fetchOptions struct {
	owner  string
	repo   string
	tag    string
	suffix string
	output string
}

var fetchOpts fetchOptions

var fetchCmd = &cobra.Command{
	Use:   "fetch OWNER/REPO",
	Short: "Download a patch set published as a GitHub release asset",
	Long: `fetch looks up a release (the latest one unless --tag is given), picks the
first asset whose name ends with --asset and saves it. The file is loaded
afterwards to make sure it is a valid patch set. Set GITHUB_TOKEN to raise
the API rate limit.`,
	Example: `  sigpatch fetch someone/game-patches --asset trial.toml
  sigpatch fetch someone/game-patches --tag 1.21.50 --asset .yaml -o patches/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, ok := strings.Cut(args[0], "/")
		if !ok || owner == "" || repo == "" {
			return errors.Newf("expected OWNER/REPO, got %q", args[0])
		}
		o := fetchOpts
		o.owner, o.repo = owner, repo

		client := github.NewClient(nil)
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			client = client.WithAuthToken(token)
		}
		_, err := fetchPatchSet(cmd.Context(), client, o)
		return err
	},
}

func init() {
	f := fetchCmd.Flags()
	f.StringVarP(&fetchOpts.tag, "tag", "t", "", "release tag (default: latest release)")
	f.StringVarP(&fetchOpts.suffix, "asset", "a", ".toml", "asset name suffix to download")
	f.StringVarP(&fetchOpts.output, "output", "o", "", "destination file or directory (default: asset name)")
	rootCmd.AddCommand(fetchCmd)
}

// fetchPatchSet downloads the matching asset and returns where it was written.
func fetchPatchSet(ctx context.Context, client *github.Client, o fetchOptions) (string, error) {
	asset, tag, err := findReleaseAsset(ctx, client, o.owner, o.repo, o.tag, o.suffix)
	if err != nil {
		return "", err
	}
	logger.Info("Found patch set", "release", tag, "asset", asset.GetName(), "size", asset.GetSize())

	dest := o.output
	if dest == "" {
		dest = asset.GetName()
	} else if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		dest = filepath.Join(dest, asset.GetName())
	}
	if _, err := patchset.FormatOf(dest); err != nil {
		return "", err
	}

	rc, _, err := client.Repositories.DownloadReleaseAsset(ctx, o.owner, o.repo, asset.GetID(), http.DefaultClient)
	if err != nil {
		return "", errors.Wrapf(err, "download %s", asset.GetName())
	}
	defer rc.Close() // nolint:errcheck

	file, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", dest)
	}
	if err := downloadWithProgress(ctx, rc, int64(asset.GetSize()), file); err != nil {
		file.Close()
		os.Remove(dest)
		return "", errors.Wrapf(err, "download %s", asset.GetName())
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrapf(err, "write %s", dest)
	}

	ps, err := patchset.Load(dest)
	if err != nil {
		return "", errors.Wrapf(err, "downloaded %s", dest)
	}
	logger.Info("Saved patch set", "name", ps.Name, "patches", len(ps.Operations), "path", dest)
	return dest, nil
}

// findReleaseAsset returns the first asset of the release whose name ends
// with suffix, along with the tag it was found under.
func findReleaseAsset(ctx context.Context, client *github.Client, owner, repo, tag, suffix string) (*github.ReleaseAsset, string, error) {
	if tag == "" {
		release, _, err := client.Repositories.GetLatestRelease(ctx, owner, repo)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to fetch latest release")
		}
		if asset := assetWithSuffix(release, suffix); asset != nil {
			return asset, release.GetTagName(), nil
		}
		return nil, "", errors.Newf("no asset found with suffix %q in release %s", suffix, release.GetTagName())
	}

	var lastErr error
	for _, t := range generateTagCandidates(tag) {
		release, _, err := client.Repositories.GetReleaseByTag(ctx, owner, repo, t)
		if err != nil {
			lastErr = errors.Wrapf(err, "failed to fetch %q release", t)
			continue
		}
		if asset := assetWithSuffix(release, suffix); asset != nil {
			return asset, t, nil
		}
		lastErr = errors.Newf("no asset found with suffix %q in release %s", suffix, release.GetTagName())
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", errors.Newf("no candidates to try for tag %q", tag)
}

func assetWithSuffix(release *github.RepositoryRelease, suffix string) *github.ReleaseAsset {
	for _, asset := range release.Assets {
		if strings.HasSuffix(asset.GetName(), suffix) {
			return asset
		}
	}
	return nil
}

// generateTagCandidates returns a list of unique tag variants to try when fetching
// a release by tag: the tag as given, the tag without its last dot-separated
// segment, each with and without a leading 'v'.
func generateTagCandidates(tag string) []string {
	seen := map[string]bool{}
	var out []string

	base := strings.TrimSpace(tag)
	if base == "" {
		return nil
	}

	variants := []string{base}

	// without leading v
	if strings.HasPrefix(base, "v") {
		variants = append(variants, strings.TrimPrefix(base, "v"))
	}

	// drop last segment
	dropped := dropLast(base)
	if dropped != base {
		variants = append(variants, dropped)
	}

	for _, v := range variants {
		vs := strings.TrimSpace(v)
		if vs == "" {
			continue
		}
		if !seen[vs] {
			seen[vs] = true
			out = append(out, vs)
		}
		if !strings.HasPrefix(vs, "v") {
			v2 := "v" + vs
			if !seen[v2] {
				seen[v2] = true
				out = append(out, v2)
			}
		}
	}

	return out
}

func dropLast(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}
