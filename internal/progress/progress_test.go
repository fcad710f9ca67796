package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45*time.Second + 300*time.Millisecond, "45s"},
		{83 * time.Second, "1m23s"},
		{10*time.Minute + 5*time.Second, "10m05s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestBarCountsConcurrentAdds(t *testing.T) {
	var buf syncBuffer
	b := New(&buf, "reproject", "features", 400)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Add(1)
			}
		}()
	}
	wg.Wait()
	b.Finish()
	b.Finish()

	if got := b.Processed(); got != 400 {
		t.Fatalf("Processed() = %d, want 400", got)
	}
	out := buf.String()
	if !strings.Contains(out, "100%") || !strings.Contains(out, "400/400 features") {
		t.Errorf("final bar missing totals: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestRenderClampsOverflow(t *testing.T) {
	b := &Bar{total: 2, label: "rows", unit: "rows", barWidth: 10}
	b.processed.Store(5)
	got := b.render(2 * time.Second)
	if !strings.Contains(got, "100%") || !strings.Contains(got, "5/2 rows") {
		t.Errorf("render = %q", got)
	}
}

func TestNilBar(t *testing.T) {
	var b *Bar
	b.Add(3)
	b.Finish()
	if b.Processed() != 0 {
		t.Error("nil bar should count nothing")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
