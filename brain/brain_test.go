package brain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kidlatpogi/L.I.N.N.Y/config"
)

func testRouter(groq, gemini, perplexity Provider) *Router {
	cfg := config.Default()
	return &Router{
		groq:       groq,
		gemini:     gemini,
		perplexity: perplexity,
		keywords:   cfg.SearchKeywords,
		userName:   "Zeus",
		lang:       "en-US",
	}
}

func TestGeneralCascadeOrder(t *testing.T) {
	groq := &fakeProvider{name: "groq", err: errors.New("rate limited")}
	gemini := &fakeProvider{name: "gemini", reply: "from gemini"}
	perplexity := &fakeProvider{name: "perplexity", reply: "from perplexity"}
	r := testRouter(groq, gemini, perplexity)

	got := r.Answer(context.Background(), "tell me a joke")
	if got != "from gemini" {
		t.Fatalf("Answer = %q, want gemini reply", got)
	}
	if groq.calls() != 1 {
		t.Fatalf("groq calls = %d, want 1", groq.calls())
	}
	if perplexity.calls() != 0 {
		t.Fatal("perplexity called even though gemini answered")
	}
}

func TestCascadeWithOnlySecondaryConfigured(t *testing.T) {
	gemini := &fakeProvider{name: "gemini", reply: "only me"}
	r := testRouter(nil, gemini, nil)

	got := r.Answer(context.Background(), "tell me a joke")
	if got != "only me" {
		t.Fatalf("Answer = %q", got)
	}
	if gemini.calls() != 1 {
		t.Fatalf("gemini calls = %d, want 1", gemini.calls())
	}
}

func TestSearchQueryWithOnlySecondaryConfigured(t *testing.T) {
	gemini := &fakeProvider{name: "gemini", reply: "only me"}
	r := testRouter(nil, gemini, nil)

	// Search order is perplexity, groq, gemini; both preferred
	// providers are absent and must be skipped without an attempt.
	got := r.Answer(context.Background(), "what's the latest news on the eruption")
	if got != "only me" {
		t.Fatalf("Answer = %q", got)
	}
	if gemini.calls() != 1 {
		t.Fatalf("gemini calls = %d, want 1", gemini.calls())
	}
}

func TestSearchIntentPrefersPerplexity(t *testing.T) {
	groq := &fakeProvider{name: "groq", reply: "from groq"}
	perplexity := &fakeProvider{name: "perplexity", reply: "live results"}
	r := testRouter(groq, nil, perplexity)

	got := r.Answer(context.Background(), "what is the latest news today")
	if got != "live results" {
		t.Fatalf("Answer = %q, want perplexity reply", got)
	}
	if groq.calls() != 0 {
		t.Fatal("groq called before perplexity on a search query")
	}
}

func TestSearchFallsBackToGroq(t *testing.T) {
	groq := &fakeProvider{name: "groq", reply: "cached answer"}
	perplexity := &fakeProvider{name: "perplexity", err: errors.New("down")}
	r := testRouter(groq, nil, perplexity)

	got := r.Answer(context.Background(), "weather in Manila")
	if got != "cached answer" {
		t.Fatalf("Answer = %q", got)
	}
}

func TestOfflineMessageWhenNothingConfigured(t *testing.T) {
	r := testRouter(nil, nil, nil)
	if r.Online() {
		t.Fatal("Online() with no providers")
	}

	got := r.Answer(context.Background(), "hello")
	if got != "Sorry, all AI models are currently unavailable." {
		t.Fatalf("Answer = %q", got)
	}

	r.lang = "fil-PH"
	got = r.Answer(context.Background(), "hello")
	if got != "Sorry, lahat ng AI models ay hindi available ngayon." {
		t.Fatalf("Answer = %q", got)
	}
}

func TestOfflineMessageWhenAllProvidersFail(t *testing.T) {
	down := errors.New("unreachable")
	r := testRouter(
		&fakeProvider{name: "groq", err: down},
		&fakeProvider{name: "gemini", err: down},
		&fakeProvider{name: "perplexity", err: down},
	)

	got := r.Answer(context.Background(), "anything")
	if !strings.HasPrefix(got, "Sorry,") {
		t.Fatalf("Answer = %q, want offline message", got)
	}
}

func TestSearchIntentKeywords(t *testing.T) {
	r := testRouter(nil, nil, nil)
	cases := []struct {
		text string
		want bool
	}{
		{"what is the price of bitcoin", true},
		{"any news about the election", true},
		{"who won the game last night", true},
		{"magkano ang presyo ng bigas", true},
		{"tell me a joke", false},
		{"how are you", false},
	}
	for _, c := range cases {
		if got := r.SearchIntent(c.text); got != c.want {
			t.Errorf("SearchIntent(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestPersonaPromptCarriesUserAndLanguage(t *testing.T) {
	groq := &fakeProvider{name: "groq", reply: "ok"}
	r := testRouter(groq, nil, nil)
	r.lang = "fil-PH"

	r.Answer(context.Background(), "kumusta")
	if groq.calls() != 1 {
		t.Fatal("groq not called")
	}
	prompt := groq.prompts[0]
	if !strings.Contains(prompt, "User: Zeus") || !strings.Contains(prompt, "Lang: Tagalog") {
		t.Fatalf("prompt = %q", prompt)
	}
	if !strings.Contains(prompt, "kumusta") {
		t.Fatalf("prompt missing question: %q", prompt)
	}
}

func TestEmptyReplyTreatedAsDecline(t *testing.T) {
	groq := &fakeProvider{name: "groq", reply: "   "}
	gemini := &fakeProvider{name: "gemini", reply: "real answer"}
	r := testRouter(groq, gemini, nil)

	got := r.Answer(context.Background(), "question")
	if got != "real answer" {
		t.Fatalf("Answer = %q", got)
	}
}

func TestNewRouterWiresConfiguredKeys(t *testing.T) {
	cfg := config.Default()
	cfg.GroqAPIKey = "gk"
	cfg.GeminiAPIKey = "aik"
	r := NewRouter(cfg)

	names := r.ProviderNames()
	if len(names) != 2 || names[0] != "groq" || names[1] != "gemini" {
		t.Fatalf("ProviderNames = %v", names)
	}
}
