package diagrams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
)

// Generator produces and refines diagram source. Satisfied by the Gemini
// client; tests plug in fakes.
type Generator interface {
	Generate(ctx context.Context, description string) (string, error)
	Refine(ctx context.Context, source, instruction string) (string, error)
}

type diagramStore interface {
	Create(ctx context.Context, d *Diagram) error
	Get(ctx context.Context, ownerID int64, id string) (*Diagram, error)
	ListByProject(ctx context.Context, ownerID int64, projectID string) ([]Diagram, error)
	Update(ctx context.Context, d *Diagram) error
	SoftDelete(ctx context.Context, ownerID int64, id string) error
}

type snapshotStore interface {
	Append(ctx context.Context, s *Snapshot) error
	List(ctx context.Context, diagramID string, limit int) ([]Snapshot, error)
	Get(ctx context.Context, diagramID, snapshotID string) (*Snapshot, error)
}

// Service implements the save, history and AI flows over the two stores.
type Service struct {
	store   diagramStore
	history snapshotStore
	gen     Generator
}

func NewService(store diagramStore, history snapshotStore, gen Generator) *Service {
	return &Service{store: store, history: history, gen: gen}
}

type CreateInput struct {
	ProjectID string
	Title     string
	Source    string
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*Diagram, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled diagram"
	}
	d := &Diagram{
		ID:        uuid.NewString(),
		ProjectID: in.ProjectID,
		OwnerID:   ownerID,
		Title:     title,
		Source:    in.Source,
		Layout:    string(render.LayoutDagre),
		Theme:     string(render.ThemeDefault),
		Direction: string(render.DirTopToBottom),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, ownerID int64, id string) (*Diagram, error) {
	return s.store.Get(ctx, ownerID, id)
}

func (s *Service) ListByProject(ctx context.Context, ownerID int64, projectID string) ([]Diagram, error) {
	return s.store.ListByProject(ctx, ownerID, projectID)
}

func (s *Service) Delete(ctx context.Context, ownerID int64, id string) error {
	return s.store.SoftDelete(ctx, ownerID, id)
}

type SaveInput struct {
	Title     string
	Source    string
	Layout    string
	Theme     string
	Direction string
	Prompt    string

	// aiResponse is only set by Refine; manual saves leave it nil.
	aiResponse *string
}

// SaveResult carries the updated document and, when snapshot recording
// failed, a warning the client shows without treating the save as lost.
type SaveResult struct {
	Diagram        *Diagram
	Snapshot       *Snapshot
	HistoryWarning string
}

// Save updates the document and appends a history snapshot of the saved
// state. The document update is authoritative: if only the snapshot write
// fails the save still succeeds, with a warning.
func (s *Service) Save(ctx context.Context, ownerID int64, id string, in SaveInput) (*SaveResult, error) {
	d, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(in.Title); t != "" {
		d.Title = t
	}
	d.Source = in.Source
	d.Layout = string(render.ParseLayout(in.Layout))
	d.Theme = string(render.ParseTheme(in.Theme))
	d.Direction = string(render.ParseDirection(in.Direction))

	if err := s.store.Update(ctx, d); err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = ManualSavePrompt
	}
	snap := &Snapshot{
		ID:         uuid.NewString(),
		DiagramID:  d.ID,
		Source:     d.Source,
		Layout:     d.Layout,
		Theme:      d.Theme,
		Direction:  d.Direction,
		UserPrompt: prompt,
		AIResponse: in.aiResponse,
	}

	res := &SaveResult{Diagram: d, Snapshot: snap}
	if err := s.history.Append(ctx, snap); err != nil {
		res.Snapshot = nil
		res.HistoryWarning = "saved, but version history could not be recorded"
		if !errors.Is(err, ErrPersistence) {
			return nil, err
		}
	}
	return res, nil
}

// History lists the newest snapshots for a diagram the caller owns. A
// non-positive limit falls back to HistoryLimit.
func (s *Service) History(ctx context.Context, ownerID int64, diagramID string, limit int) ([]Snapshot, error) {
	if _, err := s.store.Get(ctx, ownerID, diagramID); err != nil {
		return nil, err
	}
	return s.history.List(ctx, diagramID, limit)
}

// Restore returns the chosen snapshot's content. It is a pure read: nothing
// is written until the user saves the restored state, which then appends a
// new snapshot on top of the existing history.
func (s *Service) Restore(ctx context.Context, ownerID int64, diagramID, snapshotID string) (*Snapshot, error) {
	if _, err := s.store.Get(ctx, ownerID, diagramID); err != nil {
		return nil, err
	}
	return s.history.Get(ctx, diagramID, snapshotID)
}

// Generate produces fresh diagram source from a description.
func (s *Service) Generate(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("empty description")
	}
	if s.gen == nil {
		return "", ErrGenerationDisabled
	}
	return s.gen.Generate(ctx, description)
}

// Refine applies an AI edit to a stored diagram: the rewritten source is
// saved and a snapshot is appended recording the instruction and a summary
// of the assistant's answer.
func (s *Service) Refine(ctx context.Context, ownerID int64, diagramID, instruction string) (*SaveResult, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("empty instruction")
	}
	if s.gen == nil {
		return nil, ErrGenerationDisabled
	}

	d, err := s.store.Get(ctx, ownerID, diagramID)
	if err != nil {
		return nil, err
	}

	rewritten, err := s.gen.Refine(ctx, d.Source, instruction)
	if err != nil {
		return nil, err
	}

	summary := summarizeResponse(rewritten)
	return s.Save(ctx, ownerID, diagramID, SaveInput{
		Title:      d.Title,
		Source:     rewritten,
		Layout:     d.Layout,
		Theme:      d.Theme,
		Direction:  d.Direction,
		Prompt:     instruction,
		aiResponse: &summary,
	})
}

const responseSummaryLimit = 200

// summarizeResponse condenses the assistant's answer for the history entry:
// whitespace collapsed to one line, truncated past the display limit.
func summarizeResponse(response string) string {
	summary := strings.Join(strings.Fields(response), " ")
	runes := []rune(summary)
	if len(runes) > responseSummaryLimit {
		summary = string(runes[:responseSummaryLimit]) + "…"
	}
	return summary
}
