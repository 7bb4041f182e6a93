package stt

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

var errConnectionRefused = errors.New("dial tcp 127.0.0.1:443: connect: connection refused")

// fakeDoer fails the first `failures` calls, then answers with bodies in order,
// repeating the last one.
type fakeDoer struct {
	mu       sync.Mutex
	failures int
	bodies   []string
	calls    int
	requests []*http.Request
	payloads [][]byte

	// fs and path let a test check whether the audio file still exists
	// while the request is in flight
	fs             afero.Fs
	path           string
	fileDuringCall []bool
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	payload, _ := io.ReadAll(req.Body)
	f.requests = append(f.requests, req)
	f.payloads = append(f.payloads, payload)
	if f.fs != nil {
		exists, _ := afero.Exists(f.fs, f.path)
		f.fileDuringCall = append(f.fileDuringCall, exists)
	}

	if f.calls <= f.failures {
		return nil, errConnectionRefused
	}

	body := ""
	if len(f.bodies) > 0 {
		index := f.calls - f.failures - 1
		if index >= len(f.bodies) {
			index = len(f.bodies) - 1
		}
		body = f.bodies[index]
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (f *fakeDoer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newAudioFs returns an in-memory filesystem holding one audio file
func newAudioFs(t *testing.T, path string, data []byte) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("Failed to write audio file: %v", err)
	}
	return fs
}

func testDeps(t *testing.T, fs afero.Fs) Deps {
	return Deps{Fs: fs, Logger: zaptest.NewLogger(t)}
}
