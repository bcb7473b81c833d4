package text

import (
	"strings"
	"testing"
)

func TestChunkShortInput(t *testing.T) {
	input := "short text"
	chunks := Chunk(input, 100, 10)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("expected the chunk to equal the input, got %q", chunks[0])
	}
}

func TestChunkExactBoundary(t *testing.T) {
	input := strings.Repeat("a", 50)
	chunks := Chunk(input, 50, 5)
	if len(chunks) != 1 {
		t.Fatalf("input equal to chunk size should be one chunk, got %d", len(chunks))
	}
}

func TestChunkRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		size    int
		overlap int
	}{
		{"ascii", strings.Repeat("the quick brown fox ", 40), 64, 8},
		{"no overlap", strings.Repeat("x", 100), 30, 0},
		{"unicode", strings.Repeat("视频笔记生成器 ", 50), 32, 4},
		{"uneven tail", strings.Repeat("abc", 33), 20, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(tt.input, tt.size, tt.overlap)
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}

			var b strings.Builder
			b.WriteString(chunks[0])
			for _, c := range chunks[1:] {
				runes := []rune(c)
				if len(runes) <= tt.overlap {
					t.Fatalf("chunk %q shorter than the overlap", c)
				}
				b.WriteString(string(runes[tt.overlap:]))
			}
			if got := b.String(); got != tt.input {
				t.Errorf("round trip mismatch: got %d runes, want %d", len([]rune(got)), len([]rune(tt.input)))
			}
		})
	}
}

func TestChunkOverlapShared(t *testing.T) {
	input := strings.Repeat("0123456789", 10)
	chunks := Chunk(input, 40, 10)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-10:])
		head := string(cur[:10])
		if tail != head {
			t.Errorf("chunk %d: overlap mismatch %q vs %q", i, tail, head)
		}
	}
}

func TestOutline(t *testing.T) {
	md := "# Video title\n\nintro line\n\n## Key points\n- a\n\n## Details\ntext\n\n### sub\n\n## Summary\nend\n"
	got := Outline(md)
	want := []string{"Key points", "Details", "Summary"}
	if len(got) != len(want) {
		t.Fatalf("expected %d headings, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("heading %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOutlineEmpty(t *testing.T) {
	if got := Outline("no headings here"); len(got) != 0 {
		t.Errorf("expected no headings, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short input should be unchanged, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("中文测试内容", 2); got != "中文..." {
		t.Errorf("rune-based truncation failed, got %q", got)
	}
}
