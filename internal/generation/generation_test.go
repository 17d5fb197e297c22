package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/auth"
	"hostprompt/internal/events"
	"hostprompt/internal/llm"
	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
	"hostprompt/internal/vision"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []llm.ChatMessage
	temp     float64
	model    string
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, msgs []llm.ChatMessage, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.model = llm.ModelFromContext(ctx)
	f.messages = msgs
	f.temp = temperature
	return f.reply, f.err
}

type recorder struct {
	mu     sync.Mutex
	stages []events.Stage
}

func (r *recorder) Publish(evt events.Event) {
	r.mu.Lock()
	r.stages = append(r.stages, evt.Stage)
	r.mu.Unlock()
}

type stubDescriber struct{ text string }

func (s stubDescriber) Describe(context.Context, vision.Image) (string, error) {
	return s.text, nil
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, model *fakeLLM) (*Service, *recorder, storage.Property) {
	t.Helper()
	store := storage.NewInMemoryStore()
	p, err := store.CreateProperty(context.Background(), storage.Property{
		OwnerID:       "owner-1",
		Name:          "Seaside Cottage",
		Location:      "Cannon Beach, OR",
		Amenities:     []string{"hot tub", "fire pit"},
		SavedHashtags: []string{"beachhouse", "sunsetviews"},
	})
	require.NoError(t, err)

	rec := &recorder{}
	svc := &Service{
		Store:  store,
		LLM:    model,
		Events: rec,
		Now:    func() time.Time { return fixedNow },
	}
	return svc, rec, p
}

func TestGenerateAppliesSavedHashtags(t *testing.T) {
	model := &fakeLLM{reply: "Title: Sunset on the Deck\nGolden light on the deck tonight. #sunset\n\nKeywords: beach, sunset"}
	svc, rec, p := setup(t, model)

	got, err := svc.Generate(context.Background(), "owner-1", Request{
		PropertyID:  p.ID,
		ContentType: storage.ContentSocialCaption,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sunset on the Deck", got.Title)
	assert.Equal(t, []string{"beachhouse", "sunsetviews"}, got.Keywords)
	assert.True(t, strings.HasSuffix(got.Content, "\n\n#beachhouse #sunsetviews "))
	assert.Equal(t, "Golden light on the deck tonight.\n\n#beachhouse #sunsetviews ", got.Content)
	assert.Equal(t, p.ID, got.PropertyID)
	assert.Equal(t, storage.ContentSocialCaption, got.ContentType)
	assert.Equal(t, fixedNow, got.GeneratedAt)
	assert.Equal(t, "friendly, descriptive", got.BrandVoice)

	assert.Equal(t, 1, model.calls)
	assert.Equal(t, 0.7, model.temp)
	require.Len(t, model.messages, 2)
	assert.Contains(t, model.messages[1].Content, "PROPERTY:")

	assert.Equal(t, []events.Stage{
		events.StageReceived,
		events.StageComposing,
		events.StageModelCall,
		events.StagePostProcessing,
		events.StageDone,
	}, rec.stages)
}

func TestGenerateBookingGapSkipsModel(t *testing.T) {
	model := &fakeLLM{reply: "should not be used"}
	svc, _, p := setup(t, model)

	got, err := svc.Generate(context.Background(), "owner-1", Request{
		PropertyID:  p.ID,
		ContentType: storage.ContentBookingGap,
		BookingGap:  &prompts.BookingGap{StartDate: "June 3", EndDate: "June 7", SpecialOffer: "20% off"},
	})
	require.NoError(t, err)

	assert.Zero(t, model.calls)
	assert.Equal(t, "Available: June 3 - June 7", got.Title)
	assert.True(t, strings.HasPrefix(got.Content, "June 3 to June 7 -"))
	assert.Contains(t, got.Content, "20% off")
	assert.Len(t, got.Keywords, 5)
	assert.Equal(t, storage.ContentBookingGap, got.ContentType)
}

func TestGenerateBookingGapWithoutDatesCallsModel(t *testing.T) {
	model := &fakeLLM{reply: "We have a few nights open next week."}
	svc, _, p := setup(t, model)

	got, err := svc.Generate(context.Background(), "owner-1", Request{
		PropertyID:  p.ID,
		ContentType: storage.ContentBookingGap,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "Booking Gap Filler - Seaside Cottage", got.Title)
}

func TestGenerateUnknownOrForeignProperty(t *testing.T) {
	model := &fakeLLM{}
	svc, rec, p := setup(t, model)

	_, err := svc.Generate(context.Background(), "owner-2", Request{PropertyID: p.ID, ContentType: storage.ContentSocialCaption})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Generate(context.Background(), "owner-1", Request{PropertyID: "missing", ContentType: storage.ContentSocialCaption})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Zero(t, model.calls)
	assert.Equal(t, events.StageFailed, rec.stages[len(rec.stages)-1])
}

func TestGenerateModelFailure(t *testing.T) {
	model := &fakeLLM{err: errors.New("upstream 503")}
	svc, rec, p := setup(t, model)

	_, err := svc.Generate(context.Background(), "owner-1", Request{PropertyID: p.ID, ContentType: storage.ContentListingDescription})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, []events.Stage{
		events.StageReceived,
		events.StageComposing,
		events.StageModelCall,
		events.StageFailed,
	}, rec.stages)
}

func TestGenerateWithPhotoWeightsDescription(t *testing.T) {
	model := &fakeLLM{reply: "Title: Deck\nTwo chairs face the water."}
	svc, rec, p := setup(t, model)
	svc.Describer = stubDescriber{text: "Two wooden chairs on a deck facing the ocean."}

	_, err := svc.Generate(context.Background(), "owner-1", Request{
		PropertyID:  p.ID,
		ContentType: storage.ContentSocialCaption,
		PhotoData: &PhotoData{
			Base64Image: base64.StdEncoding.EncodeToString([]byte("not really a jpeg")),
			Description: "our favourite spot",
		},
	})
	require.NoError(t, err)

	user := model.messages[1].Content
	assert.Contains(t, user, "Two wooden chairs on a deck facing the ocean.")
	assert.Contains(t, user, "our favourite spot")
	assert.Contains(t, rec.stages, events.StageDescribing)
}

func TestGenerateWithUndecodablePhotoUsesFallback(t *testing.T) {
	model := &fakeLLM{reply: "Title: Deck\nA quiet weekend."}
	svc, _, p := setup(t, model)

	_, err := svc.Generate(context.Background(), "owner-1", Request{
		PropertyID:  p.ID,
		ContentType: storage.ContentSocialCaption,
		PhotoData:   &PhotoData{Base64Image: "%%%"},
	})
	require.NoError(t, err)
	assert.Contains(t, model.messages[1].Content, vision.FallbackDescription("Seaside Cottage"))
}

func TestEdit(t *testing.T) {
	model := &fakeLLM{reply: "**Come stay with us** this fall."}
	svc, _, p := setup(t, model)

	got, err := svc.Edit(context.Background(), "owner-1", EditRequest{
		Content:    "Come stay with us.",
		Prompt:     "mention autumn",
		PropertyID: p.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Come stay with us.", got.OriginalContent)
	assert.Equal(t, "Come stay with us this fall.", got.EditedContent)
	assert.Equal(t, "mention autumn", got.Prompt)
	assert.Empty(t, model.model)

	svc.EditModel = "gpt-4o-mini"
	_, err = svc.Edit(context.Background(), "owner-1", EditRequest{Content: "x", Prompt: "y"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", model.model)

	_, err = svc.Edit(context.Background(), "owner-2", EditRequest{Content: "x", Prompt: "y", PropertyID: p.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	model.err = errors.New("timeout")
	_, err = svc.Edit(context.Background(), "owner-1", EditRequest{Content: "x", Prompt: "y"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestParseBrandVoice(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want BrandVoice
		ok   bool
	}{
		{
			name: "lines",
			raw:  "BRAND_VOICE: Laid Back Coastal\nSUMMARY: Like a friend showing you their favourite beach.",
			want: BrandVoice{"Laid Back", "Like a friend showing you their favourite beach."},
			ok:   true,
		},
		{
			name: "json in fence",
			raw:  "```json\n{\"brandVoice\":\"Warm Practical\",\"brandVoiceSummary\":\"Straight talk with a smile.\"}\n```",
			want: BrandVoice{"Warm Practical", "Straight talk with a smile."},
			ok:   true,
		},
		{name: "missing summary", raw: "BRAND_VOICE: Laid Back"},
		{name: "prose", raw: "I think this host sounds friendly."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseBrandVoice(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestAnalyzerFallsBack(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, FallbackVoice, Analyzer{LLM: &fakeLLM{err: errors.New("down")}}.Analyze(ctx, "we love guests", "description"))
	assert.Equal(t, FallbackVoice, Analyzer{LLM: &fakeLLM{reply: "no idea"}}.Analyze(ctx, "we love guests", "description"))
	assert.Equal(t, FallbackVoice, Analyzer{}.Analyze(ctx, "we love guests", "description"))

	model := &fakeLLM{reply: "BRAND_VOICE: Easy Going\nSUMMARY: Feels like a chat on the porch."}
	good := Analyzer{LLM: model, Model: "models/gemini-2.5-flash"}
	assert.Equal(t, BrandVoice{"Easy Going", "Feels like a chat on the porch."}, good.Analyze(ctx, "we love guests", "captions"))
	assert.Equal(t, "gemini-2.5-flash", model.model)
}

func TestHandlers(t *testing.T) {
	model := &fakeLLM{reply: "BRAND_VOICE: Easy Going\nSUMMARY: Feels like a chat on the porch."}
	svc, _, p := setup(t, model)
	h := Handler{Service: svc, Analyzer: Analyzer{LLM: model}, Broker: events.NewBroker()}
	owner := auth.WithUser(context.Background(), storage.User{ID: "owner-1"})

	t.Run("brand voice persists", func(t *testing.T) {
		body := `{"input":"We leave fresh bread out.","inputType":"description","propertyId":"` + p.ID + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-brand-voice", strings.NewReader(body)).WithContext(owner)
		rr := httptest.NewRecorder()
		h.AnalyzeBrandVoice(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := svc.Store.GetProperty(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Easy Going", stored.BrandVoice)
		assert.Equal(t, "Feels like a chat on the porch.", stored.BrandVoiceSummary)
	})

	t.Run("brand voice falls back when the model fails", func(t *testing.T) {
		failing := Handler{
			Service:  &Service{Store: svc.Store, LLM: &fakeLLM{err: errors.New("model down")}},
			Analyzer: Analyzer{LLM: &fakeLLM{err: errors.New("model down")}},
		}
		body := `{"input":"Our captions are short.","inputType":"captions","propertyId":"` + p.ID + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-brand-voice", strings.NewReader(body)).WithContext(owner)
		rr := httptest.NewRecorder()
		failing.AnalyzeBrandVoice(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"brandVoice":"Chill Vibes","brandVoiceSummary":"Just like chatting with a friend"}`, rr.Body.String())

		stored, err := svc.Store.GetProperty(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Chill Vibes", stored.BrandVoice)
		assert.Equal(t, "Just like chatting with a friend", stored.BrandVoiceSummary)
	})

	t.Run("invalid content type", func(t *testing.T) {
		body := `{"propertyId":"` + p.ID + `","contentType":"poem"}`
		req := httptest.NewRequest(http.MethodPost, "/api/generate-content", strings.NewReader(body)).WithContext(owner)
		rr := httptest.NewRecorder()
		h.GenerateContent(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing property", func(t *testing.T) {
		body := `{"propertyId":"nope","contentType":"social_media_caption"}`
		req := httptest.NewRequest(http.MethodPost, "/api/generate-content", strings.NewReader(body)).WithContext(owner)
		rr := httptest.NewRecorder()
		h.GenerateContent(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("model failure is generic", func(t *testing.T) {
		failing := &fakeLLM{err: errors.New("secret upstream detail")}
		h := Handler{Service: &Service{Store: svc.Store, LLM: failing}}
		body := `{"propertyId":"` + p.ID + `","contentType":"house_rules"}`
		req := httptest.NewRequest(http.MethodPost, "/api/generate-content", strings.NewReader(body)).WithContext(owner)
		rr := httptest.NewRecorder()
		h.GenerateContent(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"message":"Failed to generate content"}`, rr.Body.String())
	})

	t.Run("options", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Options(rr, httptest.NewRequest(http.MethodGet, "/api/generation-options", nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Len(t, body["contentTypes"], 6)
	})
}
