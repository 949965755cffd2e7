package interact

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/starford/tether/internal/apperr"
	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/editor/mocks"
	"github.com/starford/tether/internal/matcher"
	"github.com/starford/tether/internal/models"
)

const class = "tether-unlinked"

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Snapshot() *catalog.Catalog { return s.c }

func newHandler(pages ...models.Page) *Handler {
	m := matcher.New(staticCatalog{catalog.New(pages)})
	return New(m, class, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func click(keyword string, start, end int) editor.Click {
	return editor.Click{
		Button:  editor.ButtonPrimary,
		Classes: []string{"cm-line", class},
		Data:    editor.MarkData{Keyword: keyword, Start: start, End: end},
	}
}

func TestHandle_PrefixShortestWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(
		models.Page{Name: "Project Alpha", Path: "projects/alpha.md"},
		models.Page{Name: "Project", Path: catalog.UnresolvedPath},
	)

	view.EXPECT().SliceDoc(4, 8).Return("Proj")
	view.EXPECT().DispatchEdit(editor.Edit{From: 4, To: 8, Insert: "[[Project]]"}).Return(nil)

	res, err := h.Handle(view, click("Proj", 4, 8))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Handled || res.Edit == nil {
		t.Fatalf("result = %+v, want an edit", res)
	}
	if len(res.Candidates) != 2 || res.Candidates[0].Name != "Project" || res.Candidates[1].Name != "Project Alpha" {
		t.Errorf("candidates = %v", res.Candidates)
	}
	if h.State() != Idle {
		t.Errorf("state = %v, want idle", h.State())
	}
}

func TestHandle_IgnoresSecondaryButton(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Keep", Path: "keep.md"})

	c := click("keep", 0, 4)
	c.Button = editor.ButtonSecondary
	res, err := h.Handle(view, c)
	if err != nil || res.Handled {
		t.Errorf("secondary click: res=%+v err=%v", res, err)
	}
}

func TestHandle_IgnoresUndecoratedTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Keep", Path: "keep.md"})

	c := click("keep", 0, 4)
	c.Classes = []string{"cm-line"}
	res, err := h.Handle(view, c)
	if err != nil || res.Handled {
		t.Errorf("undecorated click: res=%+v err=%v", res, err)
	}
	if h.State() != Idle {
		t.Errorf("state = %v, want idle", h.State())
	}
}

func TestHandle_NoCandidatesNoEdit(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Other", Path: "other.md"})

	res, err := h.Handle(view, click("keep", 0, 4))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Handled || res.Edit != nil || len(res.Candidates) != 0 {
		t.Errorf("result = %+v, want handled with no edit", res)
	}
}

func TestHandle_StaleMark(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Keep", Path: "keep.md"})

	view.EXPECT().SliceDoc(0, 4).Return("kept")

	res, err := h.Handle(view, click("Keep", 0, 4))
	if !errors.Is(err, apperr.ErrStaleMark) {
		t.Fatalf("err = %v, want ErrStaleMark", err)
	}
	if res.Edit != nil {
		t.Error("stale mark must not produce an edit")
	}
	if h.State() != Idle {
		t.Errorf("state = %v, want idle after error", h.State())
	}
}

func TestHandle_DispatchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Keep", Path: "keep.md"})

	view.EXPECT().SliceDoc(0, 4).Return("keep")
	view.EXPECT().DispatchEdit(gomock.Any()).Return(errors.New("read-only"))

	if _, err := h.Handle(view, click("Keep", 0, 4)); err == nil {
		t.Fatal("expected dispatch error")
	}
	if h.State() != Idle {
		t.Errorf("state = %v, want idle after error", h.State())
	}
}

func TestHandle_DroppedWhileDispatching(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)
	h := newHandler(models.Page{Name: "Keep", Path: "keep.md"})
	h.state.Store(int32(Dispatching))

	res, err := h.Handle(view, click("Keep", 0, 4))
	if err != nil || res.Handled {
		t.Errorf("overlapping click should be dropped: res=%+v err=%v", res, err)
	}
}
