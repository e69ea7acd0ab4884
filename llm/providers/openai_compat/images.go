package openai_compat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
)

const imagesPath = "/images/generations"

// GenerateImage produces images from a text prompt.
func (p *Provider) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.ImageResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidRequest(p.cfg.Name, "prompt must not be empty")
	}

	payload := map[string]any{
		"model":  p.model(req.Metadata),
		"prompt": req.Prompt,
	}
	if req.N != nil {
		payload["n"] = *req.N
	}
	if req.Size != "" {
		payload["size"] = req.Size
	}
	if req.Quality != "" {
		payload["quality"] = req.Quality
	}
	if req.ResponseFormat != "" {
		payload["response_format"] = req.ResponseFormat
	}
	mergeExtensions(payload, p.cfg.Extensions)
	mergeExtensions(payload, req.Metadata.Extensions)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, imagesPath, p.headers("application/json"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire imagesResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode images response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return newImageResponse(wire), nil
}

type imageResult struct {
	images   []llm.GeneratedImage
	metadata llm.Metadata
}

var _ llm.ImageResponse = (*imageResult)(nil)

func newImageResponse(wire imagesResponse) *imageResult {
	res := &imageResult{metadata: llm.Metadata{CreatedAt: time.Now().UTC()}}
	if wire.Created > 0 {
		res.metadata.CreatedAt = time.Unix(wire.Created, 0).UTC()
	}
	for _, item := range wire.Data {
		res.images = append(res.images, llm.GeneratedImage{
			URL:           item.URL,
			B64JSON:       item.B64JSON,
			RevisedPrompt: item.RevisedPrompt,
		})
	}
	return res
}

func (r *imageResult) Images() []llm.GeneratedImage { return r.images }
func (r *imageResult) Metadata() llm.Metadata       { return r.metadata }
