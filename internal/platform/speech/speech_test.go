package speech

import (
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/protobuf/types/known/durationpb"
)

func word(text string, start, end int64) *speechpb.WordInfo {
	return &speechpb.WordInfo{
		Word:      text,
		StartTime: durationpb.New(time.Duration(start) * time.Second),
		EndTime:   durationpb.New(time.Duration(end) * time.Second),
	}
}

func response(alts ...*speechpb.SpeechRecognitionAlternative) *speechpb.LongRunningRecognizeResponse {
	resp := &speechpb.LongRunningRecognizeResponse{}
	for _, alt := range alts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{alt},
		})
	}
	return resp
}

func TestSegmentsFromResponseGroupsIntoWindows(t *testing.T) {
	resp := response(&speechpb.SpeechRecognitionAlternative{
		Transcript: "本日の 研修を 始めます 次の 章です",
		Words: []*speechpb.WordInfo{
			word("本日の", 0, 2),
			word("研修を", 2, 4),
			word("始めます", 4, 6),
			word("次の", 31, 33),
			word("章です", 33, 35),
		},
	})

	segs := segmentsFromResponse(resp, 30)
	if len(segs) != 2 {
		t.Fatalf("segments: want=2 got=%d", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 6 {
		t.Fatalf("first window: want=[0,6] got=[%v,%v]", segs[0].Start, segs[0].End)
	}
	if segs[0].Text != "本日の 研修を 始めます" {
		t.Fatalf("first text: got=%q", segs[0].Text)
	}
	if segs[1].Start != 31 || segs[1].End != 35 {
		t.Fatalf("second window: want=[31,35] got=[%v,%v]", segs[1].Start, segs[1].End)
	}
}

func TestSegmentsFromResponseNoTimings(t *testing.T) {
	resp := response(&speechpb.SpeechRecognitionAlternative{
		Transcript: "タイムスタンプのない文字起こし",
	})

	segs := segmentsFromResponse(resp, 30)
	if len(segs) != 1 {
		t.Fatalf("segments: want=1 got=%d", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 0 {
		t.Fatalf("untimed segment should have zero offsets, got [%v,%v]", segs[0].Start, segs[0].End)
	}
	if segs[0].Text != "タイムスタンプのない文字起こし" {
		t.Fatalf("text: got=%q", segs[0].Text)
	}
}

func TestSegmentsFromResponseEmpty(t *testing.T) {
	if segs := segmentsFromResponse(nil, 30); segs != nil {
		t.Fatalf("nil response: want=nil got=%v", segs)
	}
	if segs := segmentsFromResponse(&speechpb.LongRunningRecognizeResponse{}, 30); segs != nil {
		t.Fatalf("empty response: want=nil got=%v", segs)
	}
}

func TestInferEncoding(t *testing.T) {
	cases := []struct {
		filename string
		want     speechpb.RecognitionConfig_AudioEncoding
	}{
		{"a.wav", speechpb.RecognitionConfig_LINEAR16},
		{"a.flac", speechpb.RecognitionConfig_FLAC},
		{"a.mp3", speechpb.RecognitionConfig_MP3},
		{"a.ogg", speechpb.RecognitionConfig_OGG_OPUS},
		{"a.mp4", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
	}
	for _, tc := range cases {
		if got := inferEncoding(tc.filename); got != tc.want {
			t.Fatalf("inferEncoding(%q): want=%v got=%v", tc.filename, tc.want, got)
		}
	}
}
