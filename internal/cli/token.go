package cli

import (
	"encoding/json"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/matzehuels/sbomwalk/pkg/errors"
)

const (
	keyringService = "sbomwalk"
	keyringUser    = "github-token"
)

// resolveToken finds a GitHub token, in priority order: the config file's
// token field, a keys file, the GITHUB_TOKEN environment variable, and
// finally the system keyring. Runs without a token hit GitHub's
// unauthenticated limits almost immediately, so a missing token is an
// error rather than a degraded mode.
func resolveToken(cfg Config, keysPath string) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}

	if keysPath == "" {
		keysPath = cfg.KeysFile
	}
	if keysPath != "" {
		token, err := tokenFromKeysFile(keysPath)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	if token, err := keyring.Get(keyringService, keyringUser); err == nil && token != "" {
		return token, nil
	}

	return "", errors.New(errors.ErrCodeNoToken,
		"no GitHub token found: set token in the config file, pass --keys, set GITHUB_TOKEN, or run 'sbomwalk auth set'")
}

// tokenFromKeysFile reads a token from a JSON keys file. Three layouts are
// accepted, matching what other tooling writes:
//
//	{"github_token": "..."}
//	{"token": "..."}
//	{"accounts": [{"token": "..."}]}
func tokenFromKeysFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read keys file %s", path)
	}

	var keys struct {
		GitHubToken string `json:"github_token"`
		Token       string `json:"token"`
		Accounts    []struct {
			Token string `json:"token"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse keys file %s", path)
	}

	switch {
	case keys.GitHubToken != "":
		return keys.GitHubToken, nil
	case keys.Token != "":
		return keys.Token, nil
	case len(keys.Accounts) > 0 && keys.Accounts[0].Token != "":
		return keys.Accounts[0].Token, nil
	}
	return "", nil
}

// storeToken saves a token in the system keyring.
func storeToken(token string) error {
	return keyring.Set(keyringService, keyringUser, token)
}

// deleteToken removes the token from the system keyring.
func deleteToken() error {
	return keyring.Delete(keyringService, keyringUser)
}
