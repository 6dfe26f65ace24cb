package reader

import (
	"context"
	"errors"
	"testing"

	"github.com/OwenXu27/ereader/internal/render"
)

// fakeSurface accepts only the targets listed in displayable and records
// every Navigate call.
type fakeSurface struct {
	displayable map[string]bool
	manifest    []render.ManifestItem
	calls       []string
	events      chan render.Event
}

func newFakeSurface(displayable []string, manifest ...string) *fakeSurface {
	ok := make(map[string]bool, len(displayable))
	for _, d := range displayable {
		ok[d] = true
	}
	items := make([]render.ManifestItem, len(manifest))
	for i, m := range manifest {
		items[i] = render.ManifestItem{Path: m}
	}
	return &fakeSurface{
		displayable: ok,
		manifest:    items,
		events:      make(chan render.Event, 8),
	}
}

func (f *fakeSurface) Navigate(ctx context.Context, target string) error {
	f.calls = append(f.calls, target)
	if f.displayable[target] {
		return nil
	}
	return errors.New("not displayable")
}

func (f *fakeSurface) Next(ctx context.Context) error     { return nil }
func (f *fakeSurface) Previous(ctx context.Context) error { return nil }
func (f *fakeSurface) Resize(width, height int)           {}
func (f *fakeSurface) Manifest() []render.ManifestItem    { return f.manifest }
func (f *fakeSurface) Events() <-chan render.Event        { return f.events }
func (f *fakeSurface) Destroy()                           { close(f.events) }

func TestResolver_Display(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(nil)

	t.Run("as given", func(t *testing.T) {
		s := newFakeSurface([]string{"ch1.xhtml#s2"})
		if err := r.Display(ctx, s, "ch1.xhtml#s2"); err != nil {
			t.Fatalf("Display: %v", err)
		}
		if len(s.calls) != 1 {
			t.Errorf("calls = %v", s.calls)
		}
	})

	t.Run("fragment stripped", func(t *testing.T) {
		s := newFakeSurface([]string{"ch1.xhtml"})
		if err := r.Display(ctx, s, "ch1.xhtml#s2"); err != nil {
			t.Fatalf("Display: %v", err)
		}
		want := []string{"ch1.xhtml#s2", "ch1.xhtml"}
		if len(s.calls) != 2 || s.calls[1] != want[1] {
			t.Errorf("calls = %v, want %v", s.calls, want)
		}
	})

	t.Run("manifest suffix match", func(t *testing.T) {
		s := newFakeSurface(
			[]string{"OEBPS/text/ch1.xhtml"},
			"OEBPS/text/cover.xhtml", "OEBPS/text/ch1.xhtml",
		)
		if err := r.Display(ctx, s, "ch1.xhtml#s2"); err != nil {
			t.Fatalf("Display: %v", err)
		}
		if last := s.calls[len(s.calls)-1]; last != "OEBPS/text/ch1.xhtml" {
			t.Errorf("last call = %q", last)
		}
	})

	t.Run("manifest prefix match", func(t *testing.T) {
		s := newFakeSurface([]string{"ch2.xhtml"}, "ch2.xhtml")
		if err := r.Display(ctx, s, "ch2.xhtml_split_000"); err != nil {
			t.Fatalf("Display: %v", err)
		}
	})

	t.Run("first manifest match only", func(t *testing.T) {
		// The first matching entry fails; later matches are not tried.
		s := newFakeSurface(
			[]string{"text/b/ch1.xhtml"},
			"text/a/ch1.xhtml", "text/b/ch1.xhtml",
		)
		if err := r.Display(ctx, s, "ch1.xhtml"); !errors.Is(err, ErrNavigation) {
			t.Errorf("err = %v, want ErrNavigation", err)
		}
	})

	t.Run("nothing displayable", func(t *testing.T) {
		s := newFakeSurface(nil, "other.xhtml")
		if err := r.Display(ctx, s, "ch9.xhtml#top"); !errors.Is(err, ErrNavigation) {
			t.Errorf("err = %v, want ErrNavigation", err)
		}
	})
}
