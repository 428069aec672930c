package config

import "testing"

func TestLoadRejectsMalformedFiles(t *testing.T) {
	cases := []struct {
		name, file, body string
	}{
		{"yaml syntax", "bad.yaml", "addr: :8080\n: broken\n"},
		{"yaml type", "bad.yml", "sampling:\n  temperature: hot\n"},
		{"json syntax", "bad.json", `{"addr": ":8080", "models_dir": }`},
		{"json type", "bad.json", `{"load": {"context_size": "big"}}`},
		{"toml syntax", "bad.toml", "addr=:8080\nmodels_dir\n"},
		{"toml type", "bad.toml", "[cors]\nenabled = \"yes\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeTempFile(t, t.TempDir(), tc.file, tc.body)
			if _, err := Load(p); err == nil {
				t.Fatalf("expected decode error for %s", tc.file)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/llmcore.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}
