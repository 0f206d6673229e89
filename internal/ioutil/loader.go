// Package ioutil loads account and keyword input files and parses the
// CLI's date-window arguments into the types the crawl package expects.
package ioutil

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

var accountHosts = map[string]struct{}{
	"x.com":           {},
	"www.x.com":       {},
	"twitter.com":     {},
	"www.twitter.com": {},
}

var fold = cases.Fold()

// AccountSpec is one account to crawl: the source URL as given in the
// input file, and the handle extracted from its first path segment.
type AccountSpec struct {
	URL    string
	Handle string
}

// KeywordRule is one keyword phrase to match against an account's posts.
type KeywordRule struct {
	Phrase string
}

// LoadAccounts reads one account profile URL per line from path,
// skipping blank lines and "#"-prefixed comments, and de-duplicating by
// extracted handle case-foldedly while preserving first-seen order.
func LoadAccounts(path string) ([]AccountSpec, error) {
	lines, err := readNonEmptyLines(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var accounts []AccountSpec
	for _, line := range lines {
		handle, err := extractHandle(line)
		if err != nil {
			return nil, err
		}
		key := fold.String(handle)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		accounts = append(accounts, AccountSpec{URL: line, Handle: handle})
	}
	return accounts, nil
}

// extractHandle mirrors the reference loader's _extract_handle: parse
// the URL, require an http(s) scheme and an x.com/twitter.com host, and
// take the first path segment as the handle.
func extractHandle(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid account URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid account URL scheme: %s", rawURL)
	}
	if _, ok := accountHosts[strings.ToLower(parsed.Host)]; !ok {
		return "", fmt.Errorf("account URL must point to x.com/twitter.com: %s", rawURL)
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return "", fmt.Errorf("missing account handle in URL: %s", rawURL)
	}
	handle := strings.SplitN(path, "/", 2)[0]
	if !handlePattern.MatchString(handle) {
		return "", fmt.Errorf("invalid account handle %q from URL: %s", handle, rawURL)
	}
	return handle, nil
}

// LoadKeywords reads one keyword phrase per line from path. A line may
// hold several required terms separated by whitespace, commas, or "+";
// all are normalized to whitespace-separated terms since crawl.Crawl
// treats a phrase as an all-terms match.
func LoadKeywords(path string) ([]KeywordRule, error) {
	lines, err := readNonEmptyLines(path)
	if err != nil {
		return nil, err
	}

	separators := regexp.MustCompile(`[,\+]`)
	seen := make(map[string]struct{})
	var keywords []KeywordRule
	for _, line := range lines {
		normalized := strings.Join(strings.Fields(separators.ReplaceAllString(line, " ")), " ")
		if normalized == "" {
			continue
		}
		key := fold.String(normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, KeywordRule{Phrase: normalized})
	}
	return keywords, nil
}

func readNonEmptyLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
