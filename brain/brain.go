// Package brain answers free-form questions by cascading over hosted
// language models. Search-flavored questions prefer a provider with
// live web access; everything else starts with the fastest provider.
// The router always returns something speakable, falling back to a
// localized offline apology when every provider declines.
package brain

import (
	"context"
	"strings"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/config"
	"github.com/kidlatpogi/L.I.N.N.Y/log"
)

// Provider is one hosted model endpoint.
type Provider interface {
	Name() string
	Ask(ctx context.Context, prompt string) (string, error)
}

// Router picks the provider order per question and walks it until one
// answers. Providers that are not configured are simply absent.
type Router struct {
	groq       Provider
	gemini     Provider
	perplexity Provider

	keywords []string
	userName string
	lang     string
}

const attemptTimeout = 30 * time.Second

// NewRouter wires providers for every API key present in cfg. A router
// with no keys is still usable; it answers with the offline message.
func NewRouter(cfg *config.Config) *Router {
	r := &Router{
		keywords: cfg.SearchKeywords,
		userName: cfg.UserName,
		lang:     cfg.Language,
	}
	if key := strings.TrimSpace(cfg.GroqAPIKey); key != "" {
		r.groq = newGroq(key)
	}
	if key := strings.TrimSpace(cfg.PerplexityAPIKey); key != "" {
		r.perplexity = newPerplexity(key)
	}
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		r.gemini = newGemini(key)
	}
	return r
}

// Online reports whether at least one provider is configured.
func (r *Router) Online() bool {
	return r.groq != nil || r.gemini != nil || r.perplexity != nil
}

// ProviderNames lists configured providers in general-query order.
func (r *Router) ProviderNames() []string {
	var names []string
	for _, p := range []Provider{r.groq, r.gemini, r.perplexity} {
		if p != nil {
			names = append(names, p.Name())
		}
	}
	return names
}

// SearchIntent reports whether the question asks about live or current
// information, by keyword membership.
func (r *Router) SearchIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Answer runs the cascade and always returns a speakable reply.
func (r *Router) Answer(ctx context.Context, question string) string {
	prompt := r.personaPrompt(question)

	var order []Provider
	search := r.SearchIntent(question)
	if search {
		order = []Provider{r.perplexity, r.groq, r.gemini}
	} else {
		order = []Provider{r.groq, r.gemini, r.perplexity}
	}

	for _, p := range order {
		if p == nil {
			continue
		}
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		reply, err := p.Ask(attemptCtx, prompt)
		cancel()
		if err != nil {
			log.BrainDecline(p.Name(), err.Error())
			continue
		}
		reply = strings.TrimSpace(reply)
		if reply == "" {
			log.BrainDecline(p.Name(), "empty reply")
			continue
		}
		log.BrainReply(p.Name(), search, time.Since(start), len(reply))
		return reply
	}

	log.Warn("no provider answered")
	return r.offlineMessage()
}

func (r *Router) personaPrompt(question string) string {
	langName := "English"
	if strings.EqualFold(r.lang, "fil-PH") {
		langName = "Tagalog"
	}
	return "Persona: Linny (Loyal AI). User: " + r.userName +
		". Lang: " + langName + ". Brief, warm answer.\n\nUser: " + question
}

func (r *Router) offlineMessage() string {
	if strings.EqualFold(r.lang, "fil-PH") {
		return "Sorry, lahat ng AI models ay hindi available ngayon."
	}
	return "Sorry, all AI models are currently unavailable."
}
