package advisor

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"carteira/internal/log"
)

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// GenerateImage returns the first image the model produces as a data URL.
func (a *Advisor) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	resp, err := a.generate(ctx, log.OpImage, a.imageModel, userText(prompt), nil)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", ErrNoImage
}

// AnalyzeImage describes a data URL image following prompt.
func (a *Advisor) AnalyzeImage(ctx context.Context, dataURL, prompt string) (string, error) {
	mime, data, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			{Text: prompt},
		},
	}}
	resp, err := a.generate(ctx, log.OpImage, a.model, contents, nil)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}
	return imageFallback, nil
}

// ParseDataURL splits a base64 data URL into its MIME type and bytes.
func ParseDataURL(s string) (string, []byte, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return m[1], data, nil
}
