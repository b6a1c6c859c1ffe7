package stt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tobysim/radiation/internal/audio"
)

func testClip() audio.Clip {
	return audio.NewClip(audio.Format{SampleRate: 16000, Channels: 1}, make([]int16, 1600))
}

func TestHTTP_Transcribe(t *testing.T) {
	var gotModel, gotAuth string
	var gotClip audio.Clip

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")

		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		gotClip, _ = audio.ReadWAV(bytes.NewReader(data))

		_, _ = w.Write([]byte(`{"text": "  Chris is here \n"}`))
	}))
	defer srv.Close()

	h := NewHTTP(Config{URL: srv.URL, Model: "whisper-1", APIKey: "secret", Timeout: time.Second})
	text, err := h.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if text != "Chris is here" {
		t.Errorf("Expected trimmed transcript, got %q", text)
	}
	if gotModel != "whisper-1" {
		t.Errorf("Expected model whisper-1, got %q", gotModel)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotClip.Duration() != 100*time.Millisecond {
		t.Errorf("Expected 100ms of uploaded audio, got %v", gotClip.Duration())
	}
}

func TestHTTP_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrRequestFailed},
		{"bad json", http.StatusOK, "not json", ErrRequestFailed},
		{"empty text", http.StatusOK, `{"text": ""}`, ErrNotUnderstood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTP(Config{URL: srv.URL}).Transcribe(context.Background(), testClip())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTP_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(Config{URL: url, Timeout: time.Second}).Transcribe(context.Background(), testClip())
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed, got %v", err)
	}
}

func TestExec_Argv(t *testing.T) {
	e, err := NewExec(`whisper-cli -m "my model.bin" -f {file}`, 0)
	if err != nil {
		t.Fatalf("NewExec failed: %v", err)
	}
	want := []string{"whisper-cli", "-m", "my model.bin", "-f", "/tmp/a.wav"}
	if got := e.argv("/tmp/a.wav"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	e, _ = NewExec("recognize --quiet", 0)
	want = []string{"recognize", "--quiet", "/tmp/a.wav"}
	if got := e.argv("/tmp/a.wav"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected path appended, got %v", got)
	}

	if _, err := NewExec("  ", 0); err == nil {
		t.Error("Expected error for empty command")
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello there\n", "hello there"},
		{`{"text": " hi ", "confidence": 0.9}`, "hi"},
		{"{not json", "{not json"},
		{"  \n", ""},
	}
	for _, tt := range tests {
		if got := parseOutput([]byte(tt.in)); got != tt.want {
			t.Errorf("parseOutput(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestExec_Transcribe(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "recognize.sh")
	body := "#!/bin/sh\ntest -s \"$1\" && echo 'the Roaring night'\n"
	if err := os.WriteFile(script, []byte(body), 0o700); err != nil {
		t.Fatal(err)
	}

	e, err := NewExec(script, time.Second)
	if err != nil {
		t.Fatalf("NewExec failed: %v", err)
	}
	text, err := e.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "the Roaring night" {
		t.Errorf("Unexpected transcript %q", text)
	}

	e, _ = NewExec("/bin/sh -c 'exit 2'", time.Second)
	if _, err := e.Transcribe(context.Background(), testClip()); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed, got %v", err)
	}
}

func TestMock(t *testing.T) {
	boom := errors.New("boom")
	m := NewMock(MockResult{Text: "one"}, MockResult{}, MockResult{Err: boom})

	if text, err := m.Transcribe(context.Background(), testClip()); err != nil || text != "one" {
		t.Errorf("Expected one, got %q (%v)", text, err)
	}
	if _, err := m.Transcribe(context.Background(), testClip()); !errors.Is(err, ErrNotUnderstood) {
		t.Errorf("Expected ErrNotUnderstood, got %v", err)
	}
	if _, err := m.Transcribe(context.Background(), testClip()); !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if _, err := m.Transcribe(context.Background(), testClip()); !errors.Is(err, ErrNotUnderstood) {
		t.Errorf("Expected ErrNotUnderstood after script, got %v", err)
	}
	if m.Calls() != 4 {
		t.Errorf("Expected 4 calls, got %d", m.Calls())
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Backend: "mock"}); err != nil {
		t.Errorf("Expected mock backend, got %v", err)
	}
	if tr, err := New(DefaultConfig()); err != nil {
		t.Errorf("Expected http backend, got %v", err)
	} else if _, ok := tr.(*HTTP); !ok {
		t.Errorf("Expected *HTTP, got %T", tr)
	}
	if _, err := New(Config{Backend: "sphinx"}); !errors.Is(err, ErrInvalidBackend) {
		t.Errorf("Expected ErrInvalidBackend, got %v", err)
	}
}
