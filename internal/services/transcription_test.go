package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/speech"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/storage"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type fakeProvider struct {
	segments []speech.Segment
	err      error
}

func (p *fakeProvider) Transcribe(ctx context.Context, r io.Reader, filename string) ([]speech.Segment, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return p.segments, p.err
}

func (p *fakeProvider) Close() error { return nil }

func newTranscriptionFixture(t *testing.T, gdb *gorm.DB, provider speech.Provider) (TranscriptionService, storage.Store) {
	t.Helper()
	log := logger.NewNop()
	store, err := storage.New(log, storage.Config{Mode: storage.ModeLocal, LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	svc := NewTranscriptionService(
		gdb,
		repos.NewVideoRepo(gdb, log),
		repos.NewVideoTranscriptRepo(gdb, log),
		repos.NewTranscriptionJobRepo(gdb, log),
		store,
		provider,
		log,
	)
	return svc, store
}

func TestEnqueueTranscription(t *testing.T) {
	gdb := testDB(t)
	svc, _ := newTranscriptionFixture(t, gdb, &fakeProvider{})
	ctx := context.Background()
	super := superRC(t, gdb)
	video := createVideo(t, gdb, "文字起こし対象", "transcribe-target", nil)

	job, err := svc.Enqueue(ctx, super, video.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != "" && job.Status != types.TranscriptionJobQueued {
		t.Fatalf("job status: got %q", job.Status)
	}

	var updated types.Video
	if err := gdb.First(&updated, "id = ?", video.ID).Error; err != nil {
		t.Fatalf("reload video: %v", err)
	}
	if updated.TranscriptionStatus != types.TranscriptionPending {
		t.Fatalf("video status: want=pending got=%q", updated.TranscriptionStatus)
	}

	// A second enqueue while the first is still queued is a conflict.
	if _, err := svc.Enqueue(ctx, super, video.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestEnqueueRequiresSuperAdmin(t *testing.T) {
	gdb := testDB(t)
	svc, _ := newTranscriptionFixture(t, gdb, &fakeProvider{})
	video := createVideo(t, gdb, "権限テスト", "transcribe-auth", nil)
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))

	if _, err := svc.Enqueue(context.Background(), admin, video.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestProcessJobSuccess(t *testing.T) {
	gdb := testDB(t)
	provider := &fakeProvider{segments: []speech.Segment{
		{Text: "本日の研修を始めます", Start: 0, End: 28},
		{Text: "次の章に進みます", Start: 30, End: 55},
	}}
	svc, store := newTranscriptionFixture(t, gdb, provider)
	ctx := context.Background()
	video := createVideo(t, gdb, "成功ケース", "transcribe-ok", nil)
	if err := store.Save(ctx, video.Filename, strings.NewReader("media")); err != nil {
		t.Fatalf("save media: %v", err)
	}

	job, err := svc.Enqueue(ctx, superRC(t, gdb), video.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := svc.ProcessJob(ctx, job); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	var rows []types.VideoTranscript
	if err := gdb.Where("video_id = ? AND content_type = ?", video.ID, "auto").
		Order("timestamp_start ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load transcripts: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("transcripts: want=2 got=%d", len(rows))
	}
	if rows[0].TimestampStart == nil || *rows[0].TimestampStart != 0 || *rows[0].TimestampEnd != 28 {
		t.Fatalf("first segment offsets wrong: %+v", rows[0])
	}

	var updated types.Video
	if err := gdb.First(&updated, "id = ?", video.ID).Error; err != nil {
		t.Fatalf("reload video: %v", err)
	}
	if updated.TranscriptionStatus != types.TranscriptionCompleted {
		t.Fatalf("video status: want=completed got=%q", updated.TranscriptionStatus)
	}

	var finished types.TranscriptionJob
	if err := gdb.First(&finished, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if finished.Status != types.TranscriptionJobCompleted {
		t.Fatalf("job status: want=completed got=%q", finished.Status)
	}
}

func TestProcessJobReplacesOldAutoTranscripts(t *testing.T) {
	gdb := testDB(t)
	provider := &fakeProvider{segments: []speech.Segment{{Text: "新しい結果", Start: 0, End: 10}}}
	svc, store := newTranscriptionFixture(t, gdb, provider)
	ctx := context.Background()
	video := createVideo(t, gdb, "再実行", "transcribe-rerun", nil)
	if err := store.Save(ctx, video.Filename, strings.NewReader("media")); err != nil {
		t.Fatalf("save media: %v", err)
	}

	stale := &types.VideoTranscript{VideoID: video.ID, Content: "古い結果", ContentType: "auto"}
	manual := &types.VideoTranscript{VideoID: video.ID, Content: "説明文", ContentType: "description"}
	if err := gdb.Create(stale).Error; err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	if err := gdb.Create(manual).Error; err != nil {
		t.Fatalf("seed manual: %v", err)
	}

	if err := svc.ProcessJob(ctx, &types.TranscriptionJob{ID: uuid.New(), VideoID: video.ID}); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	var autoRows, descRows int64
	gdb.Model(&types.VideoTranscript{}).Where("video_id = ? AND content_type = ?", video.ID, "auto").Count(&autoRows)
	gdb.Model(&types.VideoTranscript{}).Where("video_id = ? AND content_type = ?", video.ID, "description").Count(&descRows)
	if autoRows != 1 {
		t.Fatalf("auto rows: want=1 got=%d", autoRows)
	}
	if descRows != 1 {
		t.Fatalf("description rows must survive: got=%d", descRows)
	}
}

func TestProcessJobFailure(t *testing.T) {
	gdb := testDB(t)
	provider := &fakeProvider{err: fmt.Errorf("speech backend down")}
	svc, store := newTranscriptionFixture(t, gdb, provider)
	ctx := context.Background()
	video := createVideo(t, gdb, "失敗ケース", "transcribe-fail", nil)
	if err := store.Save(ctx, video.Filename, strings.NewReader("media")); err != nil {
		t.Fatalf("save media: %v", err)
	}

	job, err := svc.Enqueue(ctx, superRC(t, gdb), video.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := svc.ProcessJob(ctx, job); err == nil {
		t.Fatal("ProcessJob should surface the transcription error")
	}

	var finished types.TranscriptionJob
	if err := gdb.First(&finished, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if finished.Status != types.TranscriptionJobFailed {
		t.Fatalf("job status: want=failed got=%q", finished.Status)
	}
	if finished.LastError == "" || finished.LastErrorAt == nil {
		t.Fatal("failed job should record the error and its time")
	}

	var updated types.Video
	if err := gdb.First(&updated, "id = ?", video.ID).Error; err != nil {
		t.Fatalf("reload video: %v", err)
	}
	if updated.TranscriptionStatus != types.TranscriptionFailed {
		t.Fatalf("video status: want=failed got=%q", updated.TranscriptionStatus)
	}
}
