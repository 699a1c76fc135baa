package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSpeechEndpoint is Google Translate's text-to-speech endpoint (no API key needed)
const DefaultSpeechEndpoint = "https://translate.google.com/translate_tts"

const (
	speechRequestTimeout = 10 * time.Second
	speechSubdir         = "audio"
)

// SpeechGenerator renders prompts of audio questions to MP3 files under
// mediaDir/audio.
type SpeechGenerator struct {
	mediaDir string
	endpoint string
	language string
	client   *http.Client
}

// NewSpeechGenerator creates a generator. An empty endpoint uses DefaultSpeechEndpoint.
func NewSpeechGenerator(mediaDir, endpoint, language string) *SpeechGenerator {
	if endpoint == "" {
		endpoint = DefaultSpeechEndpoint
	}
	if language == "" {
		language = "en"
	}
	return &SpeechGenerator{
		mediaDir: mediaDir,
		endpoint: endpoint,
		language: language,
		client:   &http.Client{Timeout: speechRequestTimeout},
	}
}

// ObjectPath is the manifest path of the audio for a media name
func ObjectPath(name string) string {
	sanitized := strings.ToLower(strings.TrimSpace(name))
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	return speechSubdir + "/" + sanitized + ".mp3"
}

// Generate speaks text into the file for name and returns its object path.
// Existing files are kept.
func (g *SpeechGenerator) Generate(ctx context.Context, name, text string) (string, error) {
	objectPath := ObjectPath(name)
	fullPath := filepath.Join(g.mediaDir, filepath.FromSlash(objectPath))

	if _, err := os.Stat(fullPath); err == nil {
		return objectPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	if err := g.fetch(ctx, text, fullPath); err != nil {
		return "", fmt.Errorf("failed to generate audio for %q: %w", name, err)
	}
	return objectPath, nil
}

func (g *SpeechGenerator) fetch(ctx context.Context, text, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", g.language)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	ctx, cancel := context.WithTimeout(ctx, speechRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Google rejects requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// partial downloads never land at outputPath
	tmp := outputPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, outputPath)
}
