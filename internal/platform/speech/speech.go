package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	speechapi "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/envutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

// Segment is one timestamped slice of recognized speech.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Provider turns an uploaded media file into timestamped text. Implementations
// must be safe for concurrent use by worker goroutines.
type Provider interface {
	Transcribe(ctx context.Context, r io.Reader, filename string) ([]Segment, error)
	Close() error
}

const (
	ModeGCP  = "gcp"
	ModeNone = "none"
)

// New selects a provider from SPEECH_PROVIDER. The default is "none", which
// fails every job with a clear message instead of pretending to transcribe.
func New(log *logger.Logger) (Provider, error) {
	mode := strings.TrimSpace(strings.ToLower(envutil.String("SPEECH_PROVIDER", ModeNone)))
	switch mode {
	case ModeGCP:
		return newGCPProvider(log)
	case ModeNone, "":
		return &noopProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported speech provider %q", mode)
	}
}

type noopProvider struct{}

func (noopProvider) Transcribe(ctx context.Context, r io.Reader, filename string) ([]Segment, error) {
	return nil, fmt.Errorf("no speech provider configured")
}

func (noopProvider) Close() error { return nil }

type gcpProvider struct {
	log        *logger.Logger
	client     *speechapi.Client
	language   string
	segmentSec float64
	maxRetries int
}

func newGCPProvider(log *logger.Logger) (Provider, error) {
	ctx := context.Background()
	var opts []option.ClientOption
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := speechapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &gcpProvider{
		log:        log.With("provider", "gcp_speech"),
		client:     client,
		language:   envutil.String("SPEECH_LANGUAGE", "ja-JP"),
		segmentSec: 30,
		maxRetries: 4,
	}, nil
}

func (p *gcpProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *gcpProvider) Transcribe(ctx context.Context, r io.Reader, filename string) ([]Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	audio, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if len(audio) == 0 {
		return nil, nil
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               p.language,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			Encoding:                   inferEncoding(filename),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := p.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := p.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	return segmentsFromResponse(resp, p.segmentSec), nil
}

func inferEncoding(filename string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

type timedWord struct {
	text  string
	start float64
	end   float64
}

// segmentsFromResponse groups recognized words into fixed windows so every
// transcript row carries a start and end offset. Results without word offsets
// collapse into one untimed segment.
func segmentsFromResponse(resp *speechpb.LongRunningRecognizeResponse, windowSec float64) []Segment {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	if windowSec <= 0 {
		windowSec = 30
	}

	var words []timedWord
	var full strings.Builder
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		if strings.TrimSpace(alt.Transcript) == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(strings.TrimSpace(alt.Transcript))
		for _, w := range alt.Words {
			if w == nil {
				continue
			}
			words = append(words, timedWord{
				text:  w.Word,
				start: durToSec(w.StartTime),
				end:   durToSec(w.EndTime),
			})
		}
	}

	if len(words) == 0 {
		text := strings.TrimSpace(full.String())
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	var segs []Segment
	curStart := words[0].start
	curEnd := words[0].end
	var buf strings.Builder

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text == "" {
			return
		}
		segs = append(segs, Segment{Text: text, Start: curStart, End: curEnd})
		buf.Reset()
	}

	for _, w := range words {
		if (w.start-curStart) >= windowSec && buf.Len() > 0 {
			flush()
			curStart = w.start
			curEnd = w.end
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(w.text)
		if w.end > curEnd {
			curEnd = w.end
		}
	}
	flush()
	return segs
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}

func (p *gcpProvider) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == p.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}
