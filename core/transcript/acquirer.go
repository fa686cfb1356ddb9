package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lecternai/lectern/model"
)

// restoreCharLimit bounds how much recognized text is sent to the editor
// pass in one call.
const restoreCharLimit = 4000

const editorPrompt = "You are a professional editor. Restore punctuation and capitalization to the following transcript. Keep the original words exactly as they are."

// Track describes one caption track offered for a video
type Track struct {
	ID        string
	Language  string
	Generated bool
}

// Line is one timed caption line
type Line struct {
	Text  string
	Start float64
}

// CaptionSource lists and fetches caption tracks for a video
type CaptionSource interface {
	Fetch(ctx context.Context, videoID string, language string) ([]Line, error)
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	FetchTrack(ctx context.Context, videoID string, track Track) ([]Line, error)
}

// AudioDownloader fetches the raw audio stream of a video to a local file
type AudioDownloader interface {
	Download(ctx context.Context, videoID string) (string, error)
}

// Recognizer transcribes a local audio file to raw text
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Completer is the chat-completion capability used for the editor pass
type Completer interface {
	Complete(ctx context.Context, system string, user string, maxTokens int) (string, error)
}

type tier struct {
	name string
	run  func(ctx context.Context, videoID string) (string, error)
}

// Acquirer resolves a transcript for a video by trying caption tiers in
// order, falling back to speech recognition when no captions exist. The
// first tier that yields text wins; every tier failure is logged and
// swallowed until all tiers are exhausted.
type Acquirer struct {
	captions   CaptionSource
	audio      AudioDownloader
	recognizer Recognizer
	completer  Completer
	language   string
	log        *slog.Logger
}

// NewAcquirer creates an acquirer with the given collaborators. The
// completer may be nil; recognized speech is then returned without the
// punctuation pass. Language defaults to "en".
func NewAcquirer(captions CaptionSource, audio AudioDownloader, recognizer Recognizer, completer Completer, language string, logger *slog.Logger) *Acquirer {
	if language == "" {
		language = "en"
	}
	return &Acquirer{
		captions:   captions,
		audio:      audio,
		recognizer: recognizer,
		completer:  completer,
		language:   language,
		log:        logger,
	}
}

// Acquire runs the tier chain for a video and returns the first transcript
// found. When every tier fails the error is model.ErrTranscriptUnavailable.
func (a *Acquirer) Acquire(ctx context.Context, videoID string) (string, error) {
	tiers := []tier{
		{name: "preferred language captions", run: a.preferredCaptions},
		{name: "manual caption track", run: a.manualTrack},
		{name: "generated caption track", run: a.generatedTrack},
		{name: "first available track", run: a.firstTrack},
		{name: "speech recognition", run: a.speechRecognition},
	}

	for _, t := range tiers {
		text, err := t.run(ctx, videoID)
		if err != nil {
			a.log.Debug("Transcript tier failed",
				slog.String("tier", t.name),
				slog.String("videoId", videoID),
				slog.String("error", err.Error()))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		a.log.Info("Transcript acquired",
			slog.String("tier", t.name),
			slog.String("videoId", videoID))
		return text, nil
	}

	return "", model.ErrTranscriptUnavailable
}

func (a *Acquirer) preferredCaptions(ctx context.Context, videoID string) (string, error) {
	lines, err := a.captions.Fetch(ctx, videoID, a.language)
	if err != nil {
		return "", err
	}
	return joinLines(lines), nil
}

func (a *Acquirer) manualTrack(ctx context.Context, videoID string) (string, error) {
	return a.trackMatching(ctx, videoID, func(t Track) bool {
		return !t.Generated
	})
}

func (a *Acquirer) generatedTrack(ctx context.Context, videoID string) (string, error) {
	return a.trackMatching(ctx, videoID, func(t Track) bool {
		return t.Generated && t.Language == a.language
	})
}

func (a *Acquirer) firstTrack(ctx context.Context, videoID string) (string, error) {
	return a.trackMatching(ctx, videoID, func(t Track) bool {
		return true
	})
}

func (a *Acquirer) trackMatching(ctx context.Context, videoID string, match func(Track) bool) (string, error) {
	tracks, err := a.captions.ListTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	for _, track := range tracks {
		if !match(track) {
			continue
		}
		lines, err := a.captions.FetchTrack(ctx, videoID, track)
		if err != nil {
			return "", err
		}
		return joinLines(lines), nil
	}
	return "", fmt.Errorf("no matching caption track")
}

// speechRecognition downloads the audio, transcribes it and restores
// punctuation. The temp audio file is removed in all paths.
func (a *Acquirer) speechRecognition(ctx context.Context, videoID string) (string, error) {
	if a.audio == nil || a.recognizer == nil {
		return "", fmt.Errorf("no audio pipeline configured")
	}

	path, err := a.audio.Download(ctx, videoID)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	raw, err := a.recognizer.Recognize(ctx, path)
	if err != nil {
		return "", err
	}

	return a.restorePunctuation(ctx, raw), nil
}

// restorePunctuation runs the editor pass over raw recognized speech.
// Any failure degrades to the raw text.
func (a *Acquirer) restorePunctuation(ctx context.Context, text string) string {
	if a.completer == nil || strings.TrimSpace(text) == "" {
		return text
	}

	clipped := text
	if runes := []rune(clipped); len(runes) > restoreCharLimit {
		clipped = string(runes[:restoreCharLimit])
	}

	restored, err := a.completer.Complete(ctx, editorPrompt, clipped, 2000)
	if err != nil {
		a.log.Warn("Punctuation restore failed, keeping raw transcript",
			slog.String("error", err.Error()))
		return text
	}
	return strings.TrimSpace(restored)
}

func joinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(line.Text))
	}
	return strings.Join(parts, " ")
}
