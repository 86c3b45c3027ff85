package wish

import (
	"strconv"
	"strings"
	"time"

	"github.com/quickwish/quickwish/pkg/uictl"
)

// Wizard steps, strictly linear.
const (
	StepCategory = 1
	StepDetails  = 2
	StepLocation = 3
	StepReview   = 4
)

// Radius bounds and default, in kilometres.
const (
	MinRadiusKm     = 1
	MaxRadiusKm     = 50
	DefaultRadiusKm = 5
)

// Draft is the in-memory form state for a wish being composed. It is a
// plain state holder: setters keep the cross-field invariants, the
// step guards below decide what the wizard may do with it. Drafts are
// never persisted; navigating away discards them.
type Draft struct {
	Category    Category
	SubCategory SubCategory
	Title       string
	Description string

	Images     []string
	VoiceNotes []VoiceNote

	Location      *Location
	ManualAddress string

	RadiusKm    int
	PriceInput  string
	IsImmediate bool
	ScheduledAt *time.Time
}

// NewDraft returns an empty draft with defaults applied.
func NewDraft() *Draft {
	return &Draft{
		RadiusKm:    DefaultRadiusKm,
		IsImmediate: true,
	}
}

// SetCategory selects a category and always resets any previously
// chosen sub-category.
func (d *Draft) SetCategory(c Category) {
	d.Category = c
	d.SubCategory = ""
}

// SetSubCategory records a sub-category choice. Choices outside the
// current category's set are ignored.
func (d *Draft) SetSubCategory(sub SubCategory) {
	if !ValidSubCategory(d.Category, sub) {
		return
	}

	d.SubCategory = sub
}

// AddImage appends a local image path to the attachment list.
func (d *Draft) AddImage(path string) {
	d.Images = append(d.Images, path)
}

// RemoveImage drops the attachment at index; out of range is a no-op.
func (d *Draft) RemoveImage(index int) {
	if index < 0 || index >= len(d.Images) {
		return
	}

	d.Images = append(d.Images[:index], d.Images[index+1:]...)
}

// AddVoiceNote appends a recorded note.
func (d *Draft) AddVoiceNote(note VoiceNote) {
	d.VoiceNotes = append(d.VoiceNotes, note)
}

// RemoveVoiceNote drops the note at index; out of range is a no-op.
func (d *Draft) RemoveVoiceNote(index int) {
	if index < 0 || index >= len(d.VoiceNotes) {
		return
	}

	d.VoiceNotes = append(d.VoiceNotes[:index], d.VoiceNotes[index+1:]...)
}

// SetLocation records a resolved location and clears any manual
// address, since the fresh resolution supersedes it.
func (d *Draft) SetLocation(loc Location) {
	d.Location = &loc
	d.ManualAddress = ""
}

// SetManualAddress records typed address text. Manual text takes
// precedence over any previously resolved coordinates: the structured
// location is overwritten with a degenerate zero-coordinate value
// until GPS is re-resolved.
func (d *Draft) SetManualAddress(text string) {
	d.ManualAddress = text
	d.Location = &Location{Address: text}
}

// IncRadius grows the visibility radius by one kilometre, clamped at
// the maximum.
func (d *Draft) IncRadius() {
	d.RadiusKm = uictl.Clamp(d.RadiusKm+1, MinRadiusKm, MaxRadiusKm)
}

// DecRadius shrinks the visibility radius by one kilometre, clamped at
// the minimum.
func (d *Draft) DecRadius() {
	d.RadiusKm = uictl.Clamp(d.RadiusKm-1, MinRadiusKm, MaxRadiusKm)
}

// SetPriceInput stores the raw price field, keeping only digits and at
// most one decimal point. Parsing to a number happens at publish time.
func (d *Draft) SetPriceInput(raw string) {
	var sb strings.Builder

	seenDot := false

	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true

			sb.WriteRune(r)
		}
	}

	d.PriceInput = sb.String()
}

// Price parses the price field. ok is false when the input is empty or
// does not parse to a number greater than zero.
func (d *Draft) Price() (float64, bool) {
	value, err := strconv.ParseFloat(d.PriceInput, 64)
	if err != nil || value <= 0 {
		return 0, false
	}

	return value, true
}

// SetImmediate toggles immediate timing. Switching to immediate clears
// any previously chosen schedule, every time.
func (d *Draft) SetImmediate(immediate bool) {
	d.IsImmediate = immediate
	if immediate {
		d.ScheduledAt = nil
	}
}

// SetScheduledAt records a scheduled time and implies non-immediate
// timing.
func (d *Draft) SetScheduledAt(t time.Time) {
	d.IsImmediate = false
	d.ScheduledAt = &t
}

// StepComplete reports whether the forward guard for the given step
// passes. Steps 3 and 4 have no blocking guard: radius has a default
// and price is re-checked by Publishable.
func (d *Draft) StepComplete(step int) bool {
	switch step {
	case StepCategory:
		if d.Category == "" {
			return false
		}

		return !RequiresSubCategory(d.Category) || d.SubCategory != ""
	case StepDetails:
		return strings.TrimSpace(d.Title) != ""
	default:
		return true
	}
}

// Publishable reports whether the draft may be submitted: a non-blank
// title, a positive price, and a schedule when timing is not
// immediate.
func (d *Draft) Publishable() bool {
	if strings.TrimSpace(d.Title) == "" {
		return false
	}

	if _, ok := d.Price(); !ok {
		return false
	}

	return d.IsImmediate || d.ScheduledAt != nil
}

// BuildCreate assembles the submission payload. The manual address
// fallback applies when nothing was resolved at all; media files stay
// on the device and travel only as counts.
func (d *Draft) BuildCreate() CreateRequest {
	price, _ := d.Price()

	loc := Location{Address: d.ManualAddress}
	if d.Location != nil {
		loc = *d.Location
	}

	return CreateRequest{
		Type:           d.Category,
		SubCategory:    d.SubCategory,
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		Location:       loc,
		RadiusKm:       float64(d.RadiusKm),
		Remuneration:   price,
		IsImmediate:    d.IsImmediate,
		ScheduledTime:  d.ScheduledAt,
		ImageCount:     len(d.Images),
		VoiceNoteCount: len(d.VoiceNotes),
	}
}
