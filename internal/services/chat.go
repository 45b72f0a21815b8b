package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/openai"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

const (
	maxKeywords       = 8
	searchKeywords    = 5
	maxVideoHits      = 5
	maxTranscriptHits = 3
	maxUsecaseHits    = 3
	maxKnowledgeHits  = 5
	historyLimit      = 20
)

const chatSystemPrompt = `あなたは社内研修プラットフォームのアシスタントです。` +
	`提供されたコンテキストの範囲内で、業務でのAI活用について日本語で簡潔に答えてください。` +
	`存在しない研修動画の名前を作らないでください。` +
	`動画のおすすめはシステム側で別途提示するため、あなたからは推薦しないでください。`

// Japanese questions carry no whitespace, so particles and polite endings act
// as token separators. Longest first, so について is cut before の inside it.
var jpSeparators = []string{
	"について", "ください", "でしょうか", "したい", "ほしい",
	"ですか", "ました", "します", "という",
	"です", "ます", "する", "ある", "いる", "から", "まで", "など", "ため",
	"こと", "もの", "これ", "それ", "あれ", "どう", "教えて",
	"の", "に", "は", "を", "が", "で", "と", "た", "て", "し", "な", "も", "や", "へ",
}

// English function words dropped after splitting.
var chatStopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "is", "are", "was", "were", "be", "to", "of", "and",
		"or", "in", "on", "at", "for", "with", "about", "how", "what", "can",
		"do", "does", "please", "tell", "me", "my", "you", "your", "it", "this",
		"that", "want", "need",
	} {
		chatStopwords[w] = struct{}{}
	}
}

type RecommendedVideo struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
}

type ChatResult struct {
	Success           bool               `json:"success"`
	Response          string             `json:"response,omitempty"`
	RecommendedVideos []RecommendedVideo `json:"recommendedVideos"`
	Error             string             `json:"error,omitempty"`
}

type ChatSuggestion struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ExamplePrompt string `json:"example_prompt"`
}

type ChatService interface {
	Chat(ctx context.Context, rc *ctxutil.RequestContext, message string) (*ChatResult, error)
	Suggestions(ctx context.Context, rc *ctxutil.RequestContext) ([]ChatSuggestion, error)
	History(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.ChatHistory, error)
}

type chatService struct {
	videoRepo      repos.VideoRepo
	transcriptRepo repos.VideoTranscriptRepo
	usecaseRepo    repos.UsecaseRepo
	knowledgeRepo  repos.KnowledgeRepo
	historyRepo    repos.ChatHistoryRepo
	categoryRepo   repos.CategoryRepo
	access         AccessService
	ai             openai.Client
	log            *logger.Logger
}

func NewChatService(
	videoRepo repos.VideoRepo,
	transcriptRepo repos.VideoTranscriptRepo,
	usecaseRepo repos.UsecaseRepo,
	knowledgeRepo repos.KnowledgeRepo,
	historyRepo repos.ChatHistoryRepo,
	categoryRepo repos.CategoryRepo,
	access AccessService,
	ai openai.Client,
	baseLog *logger.Logger,
) ChatService {
	serviceLog := baseLog.With("service", "ChatService")
	return &chatService{
		videoRepo:      videoRepo,
		transcriptRepo: transcriptRepo,
		usecaseRepo:    usecaseRepo,
		knowledgeRepo:  knowledgeRepo,
		historyRepo:    historyRepo,
		categoryRepo:   categoryRepo,
		access:         access,
		ai:             ai,
		log:            serviceLog,
	}
}

// ExtractKeywords tokenizes a question into search keywords: punctuation
// becomes whitespace, stopwords and single-rune tokens are dropped, the rest
// is sorted longest-first and capped. Longer tokens tend to be the domain
// terms worth matching on.
func ExtractKeywords(message string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, message)
	for _, sep := range jpSeparators {
		cleaned = strings.ReplaceAll(cleaned, sep, " ")
	}

	seen := map[string]struct{}{}
	var keywords []string
	for _, token := range strings.Fields(cleaned) {
		token = strings.ToLower(token)
		if len([]rune(token)) < 2 {
			continue
		}
		if _, stop := chatStopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return len([]rune(keywords[i])) > len([]rune(keywords[j]))
	})
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

func (s *chatService) Chat(ctx context.Context, rc *ctxutil.RequestContext, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	keywords := ExtractKeywords(message)
	search := keywords
	if len(search) > searchKeywords {
		search = search[:searchKeywords]
	}

	visible, err := s.visibleCategoryIDs(ctx, rc)
	if err != nil {
		return nil, err
	}

	videos, err := s.searchVisibleVideos(ctx, rc, search, visible)
	if err != nil {
		return nil, err
	}
	transcripts, err := s.transcriptRepo.SearchKeywords(ctx, nil, search, maxTranscriptHits)
	if err != nil {
		return nil, err
	}
	usecases, err := s.usecaseRepo.SearchKeywords(ctx, nil, rc.IndustryID, search, maxUsecaseHits)
	if err != nil {
		return nil, err
	}
	knowledge, err := s.knowledgeRepo.SearchKeywords(ctx, nil, rc.IndustryID, search, maxKnowledgeHits)
	if err != nil {
		return nil, err
	}

	recommendations, err := s.recommend(ctx, rc, videos, transcripts, visible)
	if err != nil {
		return nil, err
	}

	contextBlock := buildContext(videos, transcripts, usecases, knowledge)
	userPrompt := message
	if contextBlock != "" {
		userPrompt = "コンテキスト:\n" + contextBlock + "\n\n質問: " + message
	}

	// One attempt only. A flaky upstream is reported to the caller rather
	// than retried into a timeout.
	response, err := s.ai.Complete(ctx, chatSystemPrompt, userPrompt)
	if err != nil {
		s.log.Warn("Chat completion failed", "error", err)
		return &ChatResult{
			Success:           false,
			RecommendedVideos: recommendations,
			Error:             "AI応答の取得に失敗しました。しばらくしてからもう一度お試しください。",
		}, nil
	}

	entry := &types.ChatHistory{
		UserID:   rc.UserID,
		Message:  message,
		Response: response,
	}
	if ids := recommendationIDs(recommendations); len(ids) > 0 {
		if raw, err := json.Marshal(ids); err == nil {
			entry.RecommendedVideoIDs = datatypes.JSON(raw)
		}
	}
	if err := s.historyRepo.Create(ctx, nil, entry); err != nil {
		s.log.Warn("Could not persist chat history", "error", err)
	}

	return &ChatResult{
		Success:           true,
		Response:          response,
		RecommendedVideos: recommendations,
	}, nil
}

func (s *chatService) visibleCategoryIDs(ctx context.Context, rc *ctxutil.RequestContext) (map[uuid.UUID]bool, error) {
	categories, err := s.categoryRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	access, err := s.access.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	visible := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		ok := access.CanView(rc, c.ID)
		if ok && c.ParentID != nil {
			if parent, found := byID[*c.ParentID]; found {
				ok = access.CanView(rc, parent.ID)
			}
		}
		visible[c.ID] = ok
	}
	return visible, nil
}

func (s *chatService) searchVisibleVideos(ctx context.Context, rc *ctxutil.RequestContext, keywords []string, visible map[uuid.UUID]bool) ([]*types.Video, error) {
	// Over-fetch, then drop the ones the caller's industry cannot see.
	hits, err := s.videoRepo.SearchKeywords(ctx, nil, keywords, maxVideoHits*3)
	if err != nil {
		return nil, err
	}
	var out []*types.Video
	for _, v := range hits {
		if v.CategoryID != nil && !visible[*v.CategoryID] {
			continue
		}
		out = append(out, v)
		if len(out) == maxVideoHits {
			break
		}
	}
	return out, nil
}

func (s *chatService) recommend(ctx context.Context, rc *ctxutil.RequestContext, videos []*types.Video, transcripts []*types.VideoTranscript, visible map[uuid.UUID]bool) ([]RecommendedVideo, error) {
	seen := map[uuid.UUID]struct{}{}
	out := []RecommendedVideo{}
	add := func(v *types.Video) {
		if _, dup := seen[v.ID]; dup || len(out) >= maxVideoHits {
			return
		}
		seen[v.ID] = struct{}{}
		out = append(out, RecommendedVideo{ID: v.ID, Title: v.Title, Slug: v.Slug})
	}
	for _, v := range videos {
		add(v)
	}

	var transcriptVideoIDs []uuid.UUID
	for _, t := range transcripts {
		if _, dup := seen[t.VideoID]; !dup {
			transcriptVideoIDs = append(transcriptVideoIDs, t.VideoID)
		}
	}
	if len(transcriptVideoIDs) > 0 {
		extra, err := s.videoRepo.ListByIDs(ctx, nil, transcriptVideoIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range extra {
			if v.CategoryID != nil && !visible[*v.CategoryID] {
				continue
			}
			add(v)
		}
	}
	return out, nil
}

func recommendationIDs(recs []RecommendedVideo) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID.String())
	}
	return ids
}

func buildContext(
	videos []*types.Video,
	transcripts []*types.VideoTranscript,
	usecases []*types.IndustryUsecase,
	knowledge []*types.ExternalKnowledge,
) string {
	var b strings.Builder
	if len(videos) > 0 {
		b.WriteString("【関連する研修動画】\n")
		for _, v := range videos {
			fmt.Fprintf(&b, "- %s: %s\n", v.Title, v.Description)
		}
	}
	if len(transcripts) > 0 {
		b.WriteString("【動画の内容抜粋】\n")
		for _, t := range transcripts {
			content := t.Content
			if len([]rune(content)) > 200 {
				content = string([]rune(content)[:200]) + "…"
			}
			fmt.Fprintf(&b, "- %s\n", content)
		}
	}
	if len(usecases) > 0 {
		b.WriteString("【業種別活用例】\n")
		for _, u := range usecases {
			fmt.Fprintf(&b, "- %s: %s\n", u.Title, u.Description)
		}
	}
	if len(knowledge) > 0 {
		b.WriteString("【参考資料】\n")
		for _, k := range knowledge {
			content := k.Content
			if len([]rune(content)) > 300 {
				content = string([]rune(content)[:300]) + "…"
			}
			fmt.Fprintf(&b, "- %s: %s\n", k.Title, content)
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *chatService) Suggestions(ctx context.Context, rc *ctxutil.RequestContext) ([]ChatSuggestion, error) {
	if rc.IndustryID == nil {
		return []ChatSuggestion{}, nil
	}
	usecases, err := s.usecaseRepo.ListByIndustry(ctx, nil, *rc.IndustryID)
	if err != nil {
		return nil, err
	}
	out := make([]ChatSuggestion, 0, len(usecases))
	for _, u := range usecases {
		out = append(out, ChatSuggestion{
			Title:         u.Title,
			Description:   u.Description,
			ExamplePrompt: u.ExamplePrompt,
		})
	}
	return out, nil
}

func (s *chatService) History(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.ChatHistory, error) {
	return s.historyRepo.ListByUser(ctx, nil, rc.UserID, historyLimit)
}
