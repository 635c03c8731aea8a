package upload

import "github.com/jewelry/jewelry-api/internal/pkg/imagehost"

// ImageResponse describes where an uploaded image ended up
type ImageResponse struct {
	URL       string            `json:"url"`
	Inline    bool              `json:"inline"`
	Provider  string            `json:"provider"`
	Processed bool              `json:"processed"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	Size      int               `json:"size"`
	Attempts  []AttemptResponse `json:"attempts"`
}

// AttemptResponse is one step of the provider chain. The underlying error
// is logged, only its class is reported.
type AttemptResponse struct {
	Provider   string `json:"provider"`
	Succeeded  bool   `json:"succeeded"`
	Failure    string `json:"failure,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ProvidersResponse lists the chain in the order it is tried
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// NewImageResponse maps a pipeline result
func NewImageResponse(result *imagehost.Result) ImageResponse {
	resp := ImageResponse{
		URL:       result.URL,
		Inline:    result.Inline,
		Provider:  result.Provider,
		Processed: result.Processed,
		Width:     result.Width,
		Height:    result.Height,
		Size:      result.Bytes,
		Attempts:  make([]AttemptResponse, 0, len(result.Attempts)),
	}
	for _, a := range result.Attempts {
		resp.Attempts = append(resp.Attempts, AttemptResponse{
			Provider:   a.Provider,
			Succeeded:  a.Succeeded,
			Failure:    string(a.Kind),
			DurationMs: a.Elapsed.Milliseconds(),
		})
	}
	return resp
}
