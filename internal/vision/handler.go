package vision

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"hostprompt/internal/httputil"
)

// Handler serves POST /api/analyze-image.
type Handler struct {
	Describer Describer
}

type analyzeRequest struct {
	ImageData    string `json:"imageData"`
	PropertyName string `json:"propertyName"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

// AnalyzeImage always answers 200. Bad payloads and provider failures
// produce the fallback description.
func (h Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("analyze-image: unreadable body")
	}

	img, err := DecodeImage(req.ImageData)
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("analyze-image: no usable image")
		httputil.RespondJSON(w, http.StatusOK, analyzeResponse{Analysis: FallbackDescription(req.PropertyName)})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, analyzeResponse{
		Analysis: DescribeOrFallback(r.Context(), h.Describer, img, req.PropertyName),
	})
}
