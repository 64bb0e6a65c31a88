package voice

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/gorilla/websocket"

	"github.com/kidlatpogi/L.I.N.N.Y/log"
)

// Edge synthesizes speech with Microsoft's neural voices over the
// public read-aloud websocket endpoint and plays back the returned mp3
// stream. No API key is needed, only the well-known client token.
type Edge struct {
	voice string
}

// The beep speaker is process-wide; init it once at the stream's
// native rate and resample anything that differs.
var speakerInit sync.Once

const (
	edgeToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeURL   = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1?TrustedClientToken=" + edgeToken

	// The endpoint always honors this format; playback assumes it.
	edgeFormat     = "audio-24khz-48kbitrate-mono-mp3"
	edgeSampleRate = beep.SampleRate(24000)
)

// VoiceFor maps a recognition language tag to a matching neural voice.
func VoiceFor(lang string) string {
	if strings.EqualFold(lang, "fil-PH") {
		return "fil-PH-BlessicaNeural"
	}
	return "en-PH-RosaNeural"
}

func NewEdge(voice string) *Edge {
	return &Edge{voice: voice}
}

func (e *Edge) Name() string { return "edge:" + e.voice }

func (e *Edge) Speak(ctx context.Context, text string) error {
	audio, err := e.synthesize(ctx, text)
	if err != nil {
		return err
	}
	return e.play(ctx, audio)
}

func (e *Edge) synthesize(ctx context.Context, text string) ([]byte, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, edgeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("edge dial: %w", err)
	}
	defer conn.Close()

	// The endpoint stalls on slow clients rather than erroring; a
	// deadline turns that into a visible failure.
	deadline := time.Now().Add(30 * time.Second)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	cfg := "X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + edgeFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cfg)); err != nil {
		return nil, fmt.Errorf("edge config: %w", err)
	}

	reqID := requestID()
	ssml := "X-RequestId:" + reqID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Path:ssml\r\n\r\n" +
		buildSSML(e.voice, text)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssml)); err != nil {
		return nil, fmt.Errorf("edge ssml: %w", err)
	}

	var audio bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("edge read: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if audio.Len() == 0 {
					return nil, errors.New("edge returned no audio")
				}
				return audio.Bytes(), nil
			}
		case websocket.BinaryMessage:
			payload, ok := edgeAudioPayload(data)
			if ok {
				audio.Write(payload)
			}
		}
	}
}

// edgeAudioPayload peels the textual header off a binary frame. The
// first two bytes are the big-endian header length.
func edgeAudioPayload(data []byte) ([]byte, bool) {
	if len(data) < 2 {
		return nil, false
	}
	headerLen := int(data[0])<<8 | int(data[1])
	if len(data) < 2+headerLen {
		return nil, false
	}
	header := string(data[2 : 2+headerLen])
	if !strings.Contains(header, "Path:audio") {
		return nil, false
	}
	return data[2+headerLen:], true
}

func buildSSML(voice, text string) string {
	var b strings.Builder
	b.WriteString(`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>`)
	b.WriteString(`<voice name='` + voice + `'>`)
	xmlEscape(&b, text)
	b.WriteString(`</voice></speak>`)
	return b.String()
}

func xmlEscape(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\'':
			b.WriteString("&apos;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
}

func edgeTimestamp() string {
	return time.Now().UTC().Format("Mon Jan 2 2006 15:04:05") + " GMT+0000 (Coordinated Universal Time)"
}

func requestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(buf[:])
}

func (e *Edge) play(ctx context.Context, audio []byte) error {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	if err != nil {
		return fmt.Errorf("mp3 decode: %w", err)
	}
	defer streamer.Close()

	speakerInit.Do(func() {
		speaker.Init(edgeSampleRate, edgeSampleRate.N(100*time.Millisecond))
	})

	var stream beep.Streamer = streamer
	if format.SampleRate != edgeSampleRate {
		stream = beep.Resample(4, format.SampleRate, edgeSampleRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		log.Info("playback interrupted")
		return ctx.Err()
	}
}
