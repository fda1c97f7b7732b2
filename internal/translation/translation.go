// Package translation machine-translates article text between locales.
package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/metrics"
)

// FailedMessage replaces a segment whose translation failed.
const FailedMessage = "Failed to translate. Please try again later."

const systemMessage = `You are a professional multi-lingual editor and translator.
Translate the provided segments into the requested target language EXACTLY as specified.
- Use Modern Standard Arabic for Arabic targets, suitable for news publishing.
- Preserve meaning, clarity, and concise headline tone when applicable.
- Do NOT add diacritics. Respect sentence punctuation.
- Do NOT change numbers, URLs, HTML attributes, or IDs.`

// Translator translates batches of strings. The result has one entry per
// input, in order.
type Translator interface {
	CanTranslate(source, target string) bool
	Translate(ctx context.Context, source, target string, texts []string) ([]string, error)
}

// HuggingFaceTranslator calls a chat model through the Hugging Face router,
// which speaks the OpenAI chat completions protocol.
type HuggingFaceTranslator struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

func NewHuggingFaceTranslator(baseURL, token, model string, log *zap.Logger, opts ...option.RequestOption) *HuggingFaceTranslator {
	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(token),
	}, opts...)
	return &HuggingFaceTranslator{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log.Named("translation"),
	}
}

func (t *HuggingFaceTranslator) CanTranslate(source, target string) bool {
	return source != "" && target != "" && !strings.EqualFold(source, target)
}

func (t *HuggingFaceTranslator) Translate(ctx context.Context, source, target string, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		out[i] = t.translate(ctx, source, target, text)
	}
	return out, nil
}

func (t *HuggingFaceTranslator) translate(ctx context.Context, source, target, text string) string {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemMessage),
			openai.UserMessage(fmt.Sprintf("Translate the following text from %s to %s:\n %s", source, target, text)),
		},
	})
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues("error").Inc()
		t.log.Error("Translation failed",
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err),
		)
		return FailedMessage
	}
	metrics.TranslationsTotal.WithLabelValues("ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, figcaption, td, th, pre"

// TranslateHTML translates the text of every innermost block element of an
// HTML fragment, leaving the surrounding markup untouched. A fragment without
// block elements is translated as a whole.
func TranslateHTML(ctx context.Context, tr Translator, source, target, html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var (
		segments []*goquery.Selection
		texts    []string
	)
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		inner, err := s.Html()
		if err != nil || strings.TrimSpace(s.Text()) == "" {
			return
		}
		segments = append(segments, s)
		texts = append(texts, inner)
	})

	if len(segments) == 0 {
		out, err := tr.Translate(ctx, source, target, []string{html})
		if err != nil {
			return "", err
		}
		return out[0], nil
	}

	translated, err := tr.Translate(ctx, source, target, texts)
	if err != nil {
		return "", err
	}
	for i, s := range segments {
		s.SetHtml(translated[i])
	}

	return doc.Find("body").Html()
}
