package translate

import (
	"context"
	"strings"
	"testing"

	"github.com/OwenXu27/ereader/internal/llm"
)

type fakeChat struct {
	gotMessages []llm.Message
	answer      string
	err         error
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.gotMessages = messages
	return f.answer, f.err
}

func TestTranslator_PromptShape(t *testing.T) {
	fc := &fakeChat{answer: "translated"}
	tr := NewTranslator(fc, "French")

	got, err := tr.Translate(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "translated" {
		t.Errorf("answer = %q", got)
	}
	if len(fc.gotMessages) != 2 {
		t.Fatalf("got %d messages, want 2", len(fc.gotMessages))
	}
	sys := fc.gotMessages[0]
	if sys.Role != llm.RoleSystem || !strings.Contains(sys.Content, "French") {
		t.Errorf("system message = %+v", sys)
	}
	if fc.gotMessages[1].Role != llm.RoleUser || fc.gotMessages[1].Content != "Hello." {
		t.Errorf("user message = %+v", fc.gotMessages[1])
	}
}
