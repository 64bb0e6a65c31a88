package recognizer

import (
	"context"
	"errors"
	"testing"
)

func TestParseGoogleBody(t *testing.T) {
	body := []byte(`{"result":[]}
{"result":[{"alternative":[{"transcript":"linny what time is it","confidence":0.94}],"final":true}],"result_index":0}`)

	res, err := parseGoogleBody(body)
	if err != nil {
		t.Fatalf("parseGoogleBody: %v", err)
	}
	if res.Text != "linny what time is it" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Confidence != 0.94 {
		t.Errorf("Confidence = %f", res.Confidence)
	}
}

func TestParseGoogleBodyEmptyResult(t *testing.T) {
	for _, body := range []string{
		``,
		`{"result":[]}`,
		`{"result":[]}` + "\n" + `{"result":[{"alternative":[],"final":true}]}`,
		`not json at all`,
	} {
		if _, err := parseGoogleBody([]byte(body)); !errors.Is(err, ErrUnclear) {
			t.Errorf("body %q: err = %v, want ErrUnclear", body, err)
		}
	}
}

func TestGoogleRejectsEmptyPCM(t *testing.T) {
	g := NewGoogle("")
	if _, err := g.Recognize(context.Background(), nil, "en-US"); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("err = %v, want ErrNoSpeech", err)
	}
}

func TestFakeScriptAdvancesAndSticks(t *testing.T) {
	f := NewFake(
		FakeTurn{Text: "first"},
		FakeTurn{Err: ErrUnclear},
		FakeTurn{Text: "last"},
	)
	ctx := context.Background()

	if res, err := f.Recognize(ctx, []byte{1}, "en-US"); err != nil || res.Text != "first" {
		t.Fatalf("turn 1: %q, %v", res.Text, err)
	}
	if _, err := f.Recognize(ctx, []byte{1}, "en-US"); !errors.Is(err, ErrUnclear) {
		t.Fatalf("turn 2: %v", err)
	}
	for i := 0; i < 3; i++ {
		if res, err := f.Recognize(ctx, []byte{1}, "en-US"); err != nil || res.Text != "last" {
			t.Fatalf("turn 3+%d: %q, %v", i, res.Text, err)
		}
	}
	if f.Calls() != 5 {
		t.Errorf("Calls = %d, want 5", f.Calls())
	}
}
