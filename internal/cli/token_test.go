package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKeys(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenFromKeysFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"github_token key", `{"github_token": "ghp_a"}`, "ghp_a"},
		{"token key", `{"token": "ghp_b"}`, "ghp_b"},
		{"accounts list", `{"accounts": [{"token": "ghp_c"}, {"token": "ghp_d"}]}`, "ghp_c"},
		{"github_token wins", `{"github_token": "ghp_a", "token": "ghp_b"}`, "ghp_a"},
		{"empty object", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenFromKeysFile(writeKeys(t, tt.content))
			if err != nil {
				t.Fatalf("tokenFromKeysFile() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenFromKeysFile_Missing(t *testing.T) {
	if _, err := tokenFromKeysFile(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("missing keys file must error")
	}
}

func TestTokenFromKeysFile_Malformed(t *testing.T) {
	if _, err := tokenFromKeysFile(writeKeys(t, "{bad")); err == nil {
		t.Fatal("malformed keys file must error")
	}
}

func TestResolveToken_Priority(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	// Config token beats everything.
	token, err := resolveToken(Config{Token: "ghp_config"}, "")
	if err != nil {
		t.Fatalf("resolveToken() error: %v", err)
	}
	if token != "ghp_config" {
		t.Errorf("token = %q, want config token", token)
	}

	// Keys file beats the environment.
	keys := writeKeys(t, `{"github_token": "ghp_keys"}`)
	token, err = resolveToken(Config{}, keys)
	if err != nil {
		t.Fatalf("resolveToken() error: %v", err)
	}
	if token != "ghp_keys" {
		t.Errorf("token = %q, want keys file token", token)
	}

	// Environment is next.
	token, err = resolveToken(Config{}, "")
	if err != nil {
		t.Fatalf("resolveToken() error: %v", err)
	}
	if token != "ghp_env" {
		t.Errorf("token = %q, want env token", token)
	}
}
