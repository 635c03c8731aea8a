package imagehost

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLog redirects the global logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestNewChainReportsShortenedChain(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		level  string
	}{
		{"development", false, "warn"},
		{"production", true, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			chain, err := NewChain(ChainConfig{Strict: tt.strict, ImgBBKey: "b"}, nil, nil)
			if err != nil {
				t.Fatalf("NewChain: %v", err)
			}
			if len(chain) != 2 {
				t.Fatalf("expected postimage and imgbb, got %v", names(chain))
			}

			var entry struct {
				Level    string   `json:"level"`
				Disabled []string `json:"disabled"`
				Missing  []string `json:"missing"`
			}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("expected one log line, got %q: %v", buf.String(), err)
			}
			if entry.Level != tt.level {
				t.Fatalf("expected level %s, got %s", tt.level, entry.Level)
			}
			want := []string{ProviderFreeImage, ProviderImgur, ProviderStorage}
			if len(entry.Disabled) != len(want) {
				t.Fatalf("disabled = %v, want %v", entry.Disabled, want)
			}
			for i := range want {
				if entry.Disabled[i] != want[i] {
					t.Fatalf("disabled = %v, want %v", entry.Disabled, want)
				}
			}
			if entry.Missing[0] != "FREEIMAGE_API_KEY" {
				t.Fatalf("unexpected missing %v", entry.Missing)
			}
		})
	}
}

func TestNewChainFullChainLogsNothing(t *testing.T) {
	buf := captureLog(t)

	_, err := NewChain(ChainConfig{Strict: true, FreeImageKey: "f", ImgBBKey: "b", ImgurClientID: "i"}, brokenStore{}, nil)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}
}
