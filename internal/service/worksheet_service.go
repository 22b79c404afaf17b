package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/pawsheets/internal/blobstore"
	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/editor"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/pkg/cards"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/embed"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// ErrNotImageCell is returned when an upload targets a text column.
var ErrNotImageCell = errors.New("images can only be uploaded into image columns")

// View is a worksheet as handed to the editor front-end. SaveError carries
// the failure of the latest autosave until a later save succeeds.
type View struct {
	sheet.Worksheet
	Letters   []string `json:"letters"`
	Pending   bool     `json:"pending"`
	SaveError string   `json:"save_error,omitempty"`
}

// Summary is one entry of a user's saved worksheets.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Preview carries both renderer outputs for the same worksheet state.
type Preview struct {
	Tree   *cards.Node `json:"tree"`
	Markup string      `json:"markup"`
	Cards  int         `json:"cards"`
}

type WorksheetService interface {
	LoadOrCreate(ctx context.Context, userID string) (View, error)
	List(ctx context.Context, userID string) ([]Summary, error)
	Get(ctx context.Context, id string) (View, error)
	Authorize(ctx context.Context, id, userID string) error
	Rename(ctx context.Context, id, name string) (View, error)
	Delete(ctx context.Context, id string) error
	Save(ctx context.Context, id string) error
	CloseSession(ctx context.Context, id string) bool

	AddRow(ctx context.Context, id string) (View, error)
	DeleteRow(ctx context.Context, id string, index int) (View, error)
	AddColumn(ctx context.Context, id string) (View, error)
	DeleteColumn(ctx context.Context, id string, index int) (View, error)
	SetCell(ctx context.Context, id string, row, col int, value string) (View, error)
	UploadImage(ctx context.Context, id, userID string, row, col int, filename string, r io.Reader) (View, error)

	UpdateStyles(ctx context.Context, id string, raw []byte) (View, error)
	ApplySizePreset(ctx context.Context, id, name string) (View, error)
	ApplyThemePreset(ctx context.Context, id, name string) (View, error)
	ApplySavedTheme(ctx context.Context, id, themeID string) (View, error)

	Preview(ctx context.Context, id string) (Preview, error)
	Embed(ctx context.Context, id, origin string) (embed.Snippets, error)
	RenderStored(ctx context.Context, id string) (Preview, error)
	ExportXLSX(ctx context.Context, id string, w io.Writer) (string, error)
	ImportXLSX(ctx context.Context, userID string, r io.Reader) (View, error)
}

// WorksheetDeps are the collaborators of the worksheet service.
type WorksheetDeps struct {
	Repos   domain.Repositories
	Manager *editor.Manager
	Hub     *realtime.Hub
	Blobs   blobstore.Store
	Presets *cardstyle.Presets
}

type worksheetService struct {
	repos   domain.Repositories
	store   *WorksheetStore
	manager *editor.Manager
	hub     *realtime.Hub
	blobs   blobstore.Store
	presets *cardstyle.Presets
	now     func() time.Time
}

func NewWorksheetService(deps WorksheetDeps) WorksheetService {
	presets := deps.Presets
	if presets == nil {
		presets = cardstyle.DefaultPresets()
	}
	return &worksheetService{
		repos:   deps.Repos,
		store:   NewWorksheetStore(deps.Repos.Worksheets),
		manager: deps.Manager,
		hub:     deps.Hub,
		blobs:   deps.Blobs,
		presets: presets,
		now:     time.Now,
	}
}

func newView(ws sheet.Worksheet, sess *editor.Session) View {
	letters := make([]string, len(ws.Columns))
	for i := range ws.Columns {
		letters[i] = sheet.ColumnLetter(i)
	}
	v := View{Worksheet: ws, Letters: letters, Pending: sess.Pending()}
	if err := sess.LastError(); err != nil {
		v.SaveError = err.Error()
	}
	return v
}

func (s *worksheetService) LoadOrCreate(ctx context.Context, userID string) (View, error) {
	if userID == "" {
		userID = domain.PublicUser
	}
	existing, err := s.repos.Worksheets.ListByUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("failed to look up worksheets: %w", err)
	}
	if len(existing) > 0 {
		// The list is newest first; the user's first worksheet is the oldest.
		return s.Get(ctx, existing[len(existing)-1].ID)
	}

	ws := sheet.NewDefault(sheet.DefaultName)
	ws.ID = uuid.NewString()
	ws.UserID = userID
	ws.CreatedAt = s.now().UTC()
	if err := s.store.Create(ctx, ws); err != nil {
		return View{}, fmt.Errorf("failed to create worksheet: %w", err)
	}
	logger.InfoLog(ctx, "created default worksheet %s for user %s", ws.ID, userID)
	return s.Get(ctx, ws.ID)
}

func (s *worksheetService) List(ctx context.Context, userID string) ([]Summary, error) {
	if userID == "" {
		userID = domain.PublicUser
	}
	recs, err := s.repos.Worksheets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *worksheetService) Get(ctx context.Context, id string) (View, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return View{}, err
	}
	return newView(sess.Snapshot(), sess), nil
}

// Authorize checks that userID owns the worksheet. The open session is
// consulted first so a worksheet created moments ago needs no store read.
func (s *worksheetService) Authorize(ctx context.Context, id, userID string) error {
	if userID == "" {
		userID = domain.PublicUser
	}
	var owner string
	if sess, ok := s.manager.Get(id); ok {
		owner = sess.Snapshot().UserID
	} else {
		rec, err := s.repos.Worksheets.Get(ctx, id)
		if err != nil {
			return err
		}
		owner = rec.UserID
	}
	if owner != "" && owner != userID {
		return fmt.Errorf("%w: worksheet %s", domain.ErrForbidden, id)
	}
	return nil
}

func (s *worksheetService) apply(ctx context.Context, id string, fn func(ws *sheet.Worksheet) error) (View, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return View{}, err
	}
	ws, err := sess.Apply(fn)
	if err != nil {
		return View{}, err
	}
	return newView(ws, sess), nil
}

func (s *worksheetService) Rename(ctx context.Context, id, name string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		ws.Rename(name)
		return nil
	})
}

func (s *worksheetService) Delete(ctx context.Context, id string) error {
	s.manager.Close(ctx, id)
	if err := s.repos.Worksheets.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.Publish(ctx, realtime.Event{WorksheetID: id, Deleted: true})
	logger.InfoLog(ctx, "deleted worksheet %s", id)
	return nil
}

func (s *worksheetService) Save(ctx context.Context, id string) error {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return err
	}
	return sess.Flush(ctx)
}

func (s *worksheetService) CloseSession(ctx context.Context, id string) bool {
	return s.manager.Close(ctx, id)
}

func (s *worksheetService) AddRow(ctx context.Context, id string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		ws.AddRow()
		return nil
	})
}

func (s *worksheetService) DeleteRow(ctx context.Context, id string, index int) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		return ws.DeleteRow(index)
	})
}

func (s *worksheetService) AddColumn(ctx context.Context, id string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		ws.AddColumn()
		return nil
	})
}

func (s *worksheetService) DeleteColumn(ctx context.Context, id string, index int) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		if err := ws.DeleteColumn(index); err != nil {
			return err
		}
		logger.DebugLog(ctx, "deleted column %s of worksheet %s", sheet.ColumnLetter(index), id)
		return nil
	})
}

func (s *worksheetService) SetCell(ctx context.Context, id string, row, col int, value string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		return ws.SetCell(row, col, value)
	})
}

// UploadImage stores the file first and only then writes its public URL
// into the cell; a failed upload leaves the worksheet untouched.
func (s *worksheetService) UploadImage(ctx context.Context, id, userID string, row, col int, filename string, r io.Reader) (View, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := checkImageCell(sess.Snapshot(), row, col); err != nil {
		return View{}, err
	}

	objectPath := blobstore.ObjectPath(userID, filename, s.now())
	if err := s.blobs.Put(ctx, objectPath, r); err != nil {
		return View{}, fmt.Errorf("failed to upload image: %w", err)
	}
	url := s.blobs.PublicURL(objectPath)
	logger.InfoLog(ctx, "uploaded %s for worksheet %s", objectPath, id)

	ws, err := sess.Apply(func(ws *sheet.Worksheet) error {
		if err := checkImageCell(*ws, row, col); err != nil {
			return err
		}
		return ws.SetCell(row, col, url)
	})
	if err != nil {
		return View{}, err
	}
	return newView(ws, sess), nil
}

func checkImageCell(ws sheet.Worksheet, row, col int) error {
	if row < 0 || row >= len(ws.Rows) || col < 0 || col >= len(ws.Columns) {
		return fmt.Errorf("%w: cell %s%d", sheet.ErrIndexOutOfRange, sheet.ColumnLetter(col), row+1)
	}
	if ws.Columns[col].Type != sheet.TypeImage {
		return ErrNotImageCell
	}
	return nil
}

func (s *worksheetService) UpdateStyles(ctx context.Context, id string, raw []byte) (View, error) {
	cfg, err := cardstyle.FromJSON(raw)
	if err != nil {
		return View{}, err
	}
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		ws.Styles = cfg
		return nil
	})
}

func (s *worksheetService) ApplySizePreset(ctx context.Context, id, name string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		cfg, err := s.presets.ApplySize(ws.Styles, name)
		if err != nil {
			return err
		}
		ws.Styles = cfg
		return nil
	})
}

func (s *worksheetService) ApplyThemePreset(ctx context.Context, id, name string) (View, error) {
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		cfg, err := s.presets.ApplyTheme(ws.Styles, name)
		if err != nil {
			return err
		}
		ws.Styles = cfg
		return nil
	})
}

// ApplySavedTheme replaces the worksheet styles with a saved theme's.
func (s *worksheetService) ApplySavedTheme(ctx context.Context, id, themeID string) (View, error) {
	theme, err := s.repos.Themes.Get(ctx, themeID)
	if err != nil {
		return View{}, err
	}
	return s.apply(ctx, id, func(ws *sheet.Worksheet) error {
		ws.Styles = cardstyle.Sanitize(theme.Styles)
		return nil
	})
}

// RenderWorksheet runs projection and both renderers over one worksheet state.
func RenderWorksheet(ws sheet.Worksheet) Preview {
	projs := cards.ProjectWorksheet(ws)
	tree, markup := cards.Render(projs, ws.Styles)
	return Preview{Tree: tree, Markup: markup, Cards: len(projs)}
}

// Preview renders the live session state, unsaved edits included.
func (s *worksheetService) Preview(ctx context.Context, id string) (Preview, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	return RenderWorksheet(sess.Snapshot()), nil
}

func (s *worksheetService) Embed(ctx context.Context, id, origin string) (embed.Snippets, error) {
	p, err := s.Preview(ctx, id)
	if err != nil {
		return embed.Snippets{}, err
	}
	return embed.ToEmbed(p.Markup, id, origin, embed.Options{}), nil
}

// RenderStored renders the last saved state, as served to foreign pages.
func (s *worksheetService) RenderStored(ctx context.Context, id string) (Preview, error) {
	ws, err := s.store.Load(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	return RenderWorksheet(ws), nil
}

func (s *worksheetService) ExportXLSX(ctx context.Context, id string, w io.Writer) (string, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return "", err
	}
	ws := sess.Snapshot()
	if err := sheet.WriteXLSX(ws, w); err != nil {
		return "", fmt.Errorf("failed to export worksheet: %w", err)
	}
	return ws.Name, nil
}

func (s *worksheetService) ImportXLSX(ctx context.Context, userID string, r io.Reader) (View, error) {
	if userID == "" {
		userID = domain.PublicUser
	}
	ws, err := sheet.ReadXLSX(r)
	if err != nil {
		return View{}, err
	}
	ws.ID = uuid.NewString()
	ws.UserID = userID
	ws.Styles = cardstyle.Default()
	ws.CreatedAt = s.now().UTC()
	if err := s.store.Create(ctx, ws); err != nil {
		return View{}, fmt.Errorf("failed to store imported worksheet: %w", err)
	}
	logger.InfoLog(ctx, "imported worksheet %s (%d rows) for user %s", ws.ID, len(ws.Rows), userID)
	return s.Get(ctx, ws.ID)
}
