package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// State is the editing surface state.
type State int

const (
	StateIdle State = iota
	StateRecordOpen
	StatePickerOpen
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecordOpen:
		return "record_open"
	case StatePickerOpen:
		return "picker_open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrScaffolderRequired = errors.New("session: scaffolder is required")
	ErrInvalidState       = errors.New("session: operation not allowed in the current state")
	ErrRecordNotFound     = errors.New("session: record not found")
	ErrMinItems           = errors.New("session: minimum number of items reached")
	ErrMaxItems           = errors.New("session: maximum number of items reached")
	ErrSingleItem         = errors.New("session: single item mode")
	ErrDeclined           = errors.New("session: operation declined")
	ErrCopyDisabled       = errors.New("session: copy and paste are disabled")
	ErrClipboardEmpty     = errors.New("session: clipboard is empty")
	ErrSchemaNotAllowed   = errors.New("session: element type is not allowed")
	ErrPositionRange      = errors.New("session: position out of range")
	ErrNoChoices          = errors.New("session: no element types to choose from")
)

// Choice is an element type the editor may add.
type Choice struct {
	ID    uuid.UUID
	Alias string
	Name  string
	Icon  string
}

// Ref returns the canonical reference of the choice.
func (c Choice) Ref() content.Ref {
	if c.ID != uuid.Nil {
		return content.IDRef(c.ID)
	}
	return content.AliasRef(c.Alias)
}

func (c Choice) matches(ref content.Ref) bool {
	if ref.HasID() && c.ID != uuid.Nil {
		return ref.ID == c.ID
	}
	return ref.Alias != "" && strings.EqualFold(ref.Alias, c.Alias)
}

// Scaffolder builds an empty record for an element type.
type Scaffolder interface {
	Scaffold(ctx context.Context, ref content.Ref) (*content.Record, error)
}

// Confirmer asks the user to confirm a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Picker lets the user choose an element type to add. A false result means
// the picker was dismissed.
type Picker interface {
	Pick(ctx context.Context, choices []Choice) (Choice, bool, error)
}

// Config holds the editing constraints of one property.
type Config struct {
	MinItems       int
	MaxItems       int
	SingleItemMode bool
	EnableCopy     bool
	// Allowed restricts which element types may be added or pasted. Empty
	// allows every type.
	Allowed []Choice
}

// Dependencies wires the session collaborators. Clipboard, Confirmer, Picker
// and Namer are optional.
type Dependencies struct {
	Scaffolder Scaffolder
	Clipboard  Clipboard
	Confirmer  Confirmer
	Picker     Picker
	Namer      *Namer
	Logger     logger.Logger
	// OnChange fires after every mutation with a copy of the records.
	OnChange func(content.List)
}

// Session tracks one editor working on one compound value. It is not safe
// for concurrent use.
type Session struct {
	deps   Dependencies
	cfg    Config
	items  content.List
	state  State
	open   uuid.UUID
	dirty  bool
	icons  map[uuid.UUID]string
	logger logger.Logger
}

// New starts a session over initial. In single item mode an empty value is
// seeded with one scaffolded record of the first allowed type.
func New(ctx context.Context, deps Dependencies, cfg Config, initial content.List) (*Session, error) {
	if deps.Scaffolder == nil {
		return nil, ErrScaffolderRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Namer == nil {
		namer, err := NewNamer("")
		if err != nil {
			return nil, err
		}
		deps.Namer = namer
	}
	if cfg.SingleItemMode {
		cfg.MinItems, cfg.MaxItems = 1, 1
	}

	s := &Session{
		deps:   deps,
		cfg:    cfg,
		items:  initial.Clone(),
		icons:  map[uuid.UUID]string{},
		logger: deps.Logger,
	}
	for _, c := range cfg.Allowed {
		if c.ID != uuid.Nil && c.Icon != "" {
			s.icons[c.ID] = c.Icon
		}
	}
	for i, rec := range s.items {
		if _, ok := rec.Key(); ok {
			continue
		}
		if raw, ok := rec.Get(content.KeyKey); ok && !raw.IsBlank() {
			s.logger.Debug("replacing record key that is not a UUID",
				logger.Field{Key: "index", Value: i},
				logger.Field{Key: "key", Value: raw.Text()},
			)
		}
		rec.SetKey(uuid.New())
	}

	if cfg.SingleItemMode && len(s.items) == 0 {
		if len(cfg.Allowed) == 0 {
			return nil, ErrNoChoices
		}
		rec, err := s.scaffold(ctx, cfg.Allowed[0].Ref())
		if err != nil {
			return nil, err
		}
		s.items = append(s.items, rec)
	}
	if err := s.applyNames(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) State() State { return s.state }

// OpenKey returns the key of the record open for editing.
func (s *Session) OpenKey() (uuid.UUID, bool) {
	return s.open, s.state == StateRecordOpen
}

// Dirty reports whether the value changed since the session started or the
// last MarkClean.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) MarkClean() { s.dirty = false }

func (s *Session) Len() int { return len(s.items) }

// Items returns a copy of the records.
func (s *Session) Items() content.List { return s.items.Clone() }

// Value encodes the records for submission. An empty session has no value.
func (s *Session) Value() (string, error) {
	if err := s.applyNames(); err != nil {
		return "", err
	}
	if len(s.items) == 0 {
		return "", nil
	}
	return s.items.Encode()
}

// CanAdd reports whether another record fits.
func (s *Session) CanAdd() bool {
	if s.cfg.SingleItemMode {
		return false
	}
	return s.cfg.MaxItems <= 0 || len(s.items) < s.cfg.MaxItems
}

// CanDelete reports whether a record may be removed.
func (s *Session) CanDelete() bool {
	return !s.cfg.SingleItemMode && len(s.items) > s.cfg.MinItems
}

// OpenPicker enters the picker sub-state.
func (s *Session) OpenPicker() error {
	if s.state == StatePickerOpen {
		return goerrors.Wrap(ErrInvalidState, goerrors.CategoryConflict, "picker already open")
	}
	if err := s.checkAdd(); err != nil {
		return err
	}
	s.state = StatePickerOpen
	s.open = uuid.Nil
	return nil
}

// ClosePicker returns to idle without adding.
func (s *Session) ClosePicker() error {
	if s.state != StatePickerOpen {
		return goerrors.Wrap(ErrInvalidState, goerrors.CategoryConflict, "picker is not open")
	}
	s.state = StateIdle
	return nil
}

// Pick runs the injected picker and adds the chosen type at position. A
// single allowed type skips the picker. A dismissed picker adds nothing and
// returns nil.
func (s *Session) Pick(ctx context.Context, position int) (*content.Record, error) {
	if err := s.OpenPicker(); err != nil {
		return nil, err
	}
	var choice Choice
	switch {
	case len(s.cfg.Allowed) == 1:
		choice = s.cfg.Allowed[0]
	case len(s.cfg.Allowed) == 0 || s.deps.Picker == nil:
		_ = s.ClosePicker()
		return nil, ErrNoChoices
	default:
		picked, ok, err := s.deps.Picker.Pick(ctx, append([]Choice(nil), s.cfg.Allowed...))
		if err != nil || !ok {
			_ = s.ClosePicker()
			return nil, err
		}
		choice = picked
	}
	rec, err := s.Add(ctx, choice.Ref(), position)
	if err != nil && s.state == StatePickerOpen {
		s.state = StateIdle
	}
	return rec, err
}

// Add scaffolds a record of ref, inserts it at position and opens it. A
// negative position appends.
func (s *Session) Add(ctx context.Context, ref content.Ref, position int) (*content.Record, error) {
	if s.state == StateRecordOpen {
		s.state = StateIdle
	}
	if err := s.checkAdd(); err != nil {
		return nil, err
	}
	if !s.allowed(ref) {
		return nil, goerrors.Wrap(ErrSchemaNotAllowed, goerrors.CategoryBadInput, ref.String())
	}
	idx, err := s.insertPosition(position)
	if err != nil {
		return nil, err
	}
	rec, err := s.scaffold(ctx, ref)
	if err != nil {
		if s.state == StatePickerOpen {
			s.state = StateIdle
		}
		return nil, err
	}

	s.insert(idx, rec)
	key, _ := rec.Key()
	s.state = StateRecordOpen
	s.open = key
	return rec.Clone(), s.changed()
}

// Edit opens the record with key, closing any other open record.
func (s *Session) Edit(key uuid.UUID) error {
	if s.state == StatePickerOpen {
		return goerrors.Wrap(ErrInvalidState, goerrors.CategoryConflict, "close the picker first")
	}
	if s.indexOf(key) < 0 {
		return goerrors.Wrap(ErrRecordNotFound, goerrors.CategoryNotFound, key.String())
	}
	s.state = StateRecordOpen
	s.open = key
	return nil
}

// Close returns to idle.
func (s *Session) Close() {
	s.state = StateIdle
	s.open = uuid.Nil
}

// Set writes a field of the open record.
func (s *Session) Set(alias string, value content.Value) error {
	if s.state != StateRecordOpen {
		return goerrors.Wrap(ErrInvalidState, goerrors.CategoryConflict, "no record is open")
	}
	if content.IsReserved(alias) {
		return goerrors.New(fmt.Sprintf("session: %s is a reserved key", alias), goerrors.CategoryBadInput)
	}
	idx := s.indexOf(s.open)
	if idx < 0 {
		return goerrors.Wrap(ErrRecordNotFound, goerrors.CategoryNotFound, s.open.String())
	}
	s.items[idx].Set(alias, value)
	return s.changed()
}

// Delete removes the record with key after confirmation. The count may not
// drop below the configured minimum.
func (s *Session) Delete(ctx context.Context, key uuid.UUID) error {
	if s.cfg.SingleItemMode {
		return goerrors.Wrap(ErrSingleItem, goerrors.CategoryConflict, "delete is disabled")
	}
	idx := s.indexOf(key)
	if idx < 0 {
		return goerrors.Wrap(ErrRecordNotFound, goerrors.CategoryNotFound, key.String())
	}
	if len(s.items)-1 < s.cfg.MinItems {
		return goerrors.Wrap(ErrMinItems, goerrors.CategoryValidation, fmt.Sprintf("at least %d items are required", s.cfg.MinItems))
	}
	if s.deps.Confirmer != nil {
		prompt := fmt.Sprintf("Are you sure you want to delete %q?", s.items[idx].Name())
		ok, err := s.deps.Confirmer.Confirm(ctx, prompt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeclined
		}
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if s.state == StateRecordOpen && s.open == key {
		s.Close()
	}
	return s.changed()
}

// Reorder moves the record at from to position to.
func (s *Session) Reorder(from, to int) error {
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return goerrors.Wrap(ErrPositionRange, goerrors.CategoryBadInput, fmt.Sprintf("move %d to %d", from, to))
	}
	if from == to {
		return nil
	}
	rec := s.items[from]
	s.items = append(s.items[:from], s.items[from+1:]...)
	s.insert(to, rec)
	return s.changed()
}

// Copy places the record with key on the clipboard.
func (s *Session) Copy(ctx context.Context, key uuid.UUID) error {
	if !s.cfg.EnableCopy || s.deps.Clipboard == nil {
		return ErrCopyDisabled
	}
	idx := s.indexOf(key)
	if idx < 0 {
		return goerrors.Wrap(ErrRecordNotFound, goerrors.CategoryNotFound, key.String())
	}
	rec := s.items[idx]
	return s.deps.Clipboard.Set(ctx, ClipboardKind, ClipboardEntry{
		SchemaKey: rec.TypeRef().String(),
		Payload:   rec.Clone(),
	})
}

// Paste inserts the clipboard record at position under a fresh key.
func (s *Session) Paste(ctx context.Context, position int) (*content.Record, error) {
	if !s.cfg.EnableCopy || s.deps.Clipboard == nil {
		return nil, ErrCopyDisabled
	}
	if err := s.checkAdd(); err != nil {
		return nil, err
	}
	entry, ok, err := s.deps.Clipboard.Get(ctx, ClipboardKind)
	if err != nil {
		return nil, err
	}
	if !ok || entry.Payload == nil {
		return nil, ErrClipboardEmpty
	}
	if !s.allowed(content.ParseRef(entry.SchemaKey)) {
		return nil, goerrors.Wrap(ErrSchemaNotAllowed, goerrors.CategoryBadInput, entry.SchemaKey)
	}
	idx, err := s.insertPosition(position)
	if err != nil {
		return nil, err
	}

	rec := entry.Payload.Clone()
	rec.SetKey(uuid.New())
	s.insert(idx, rec)
	return rec.Clone(), s.changed()
}

// SyncIcons replaces the cached icons, keyed by element type id.
func (s *Session) SyncIcons(icons map[uuid.UUID]string) {
	for id, icon := range icons {
		s.icons[id] = icon
	}
}

// Icon returns the icon of the element type of the record with key.
func (s *Session) Icon(key uuid.UUID) string {
	idx := s.indexOf(key)
	if idx < 0 {
		return ""
	}
	ref := s.items[idx].TypeRef()
	if ref.HasID() {
		return s.icons[ref.ID]
	}
	for _, c := range s.cfg.Allowed {
		if c.matches(ref) {
			return s.icons[c.ID]
		}
	}
	return ""
}

func (s *Session) checkAdd() error {
	if s.cfg.SingleItemMode {
		return goerrors.Wrap(ErrSingleItem, goerrors.CategoryConflict, "add is disabled")
	}
	if !s.CanAdd() {
		return goerrors.Wrap(ErrMaxItems, goerrors.CategoryValidation, fmt.Sprintf("at most %d items are allowed", s.cfg.MaxItems))
	}
	return nil
}

func (s *Session) allowed(ref content.Ref) bool {
	if ref.IsZero() {
		return false
	}
	if len(s.cfg.Allowed) == 0 {
		return true
	}
	for _, c := range s.cfg.Allowed {
		if c.matches(ref) {
			return true
		}
	}
	return false
}

func (s *Session) scaffold(ctx context.Context, ref content.Ref) (*content.Record, error) {
	rec, err := s.deps.Scaffolder.Scaffold(ctx, ref)
	if err != nil {
		return nil, err
	}
	rec = rec.Clone()
	rec.SetKey(uuid.New())
	return rec, nil
}

func (s *Session) insertPosition(position int) (int, error) {
	if position < 0 {
		return len(s.items), nil
	}
	if position > len(s.items) {
		return 0, goerrors.Wrap(ErrPositionRange, goerrors.CategoryBadInput, fmt.Sprintf("position %d", position))
	}
	return position, nil
}

func (s *Session) insert(idx int, rec *content.Record) {
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = rec
}

func (s *Session) indexOf(key uuid.UUID) int {
	if key == uuid.Nil {
		return -1
	}
	return s.items.IndexOfKey(key.String())
}

func (s *Session) changed() error {
	s.dirty = true
	if err := s.applyNames(); err != nil {
		return err
	}
	if s.deps.OnChange != nil {
		s.deps.OnChange(s.items.Clone())
	}
	return nil
}

func (s *Session) applyNames() error {
	for i, rec := range s.items {
		name, err := s.deps.Namer.Name(i, s.typeName(rec), rec)
		if err != nil {
			return err
		}
		rec.SetName(name)
	}
	return nil
}

func (s *Session) typeName(rec *content.Record) string {
	ref := rec.TypeRef()
	for _, c := range s.cfg.Allowed {
		if c.matches(ref) {
			return c.Name
		}
	}
	return ref.Alias
}
