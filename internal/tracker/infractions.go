package tracker

import (
	"strings"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

func (t *Tracker) AddInfractionType(in InfractionTypeInput) (model.InfractionType, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInfractionType(in); err != nil {
		return model.InfractionType{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	it := model.InfractionType{
		ID:           t.newID(),
		Label:        in.Label,
		Description:  in.Description,
		PointPenalty: in.PointPenalty,
		Compensable:  in.Compensable,
	}
	if _, err := t.dispatch(state.AddInfractionType{Type: it}); err != nil {
		return model.InfractionType{}, err
	}
	return it, nil
}

func (t *Tracker) EditInfractionType(id string, p state.InfractionTypePatch) (model.InfractionType, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := state.FindInfractionType(t.state, id); ok {
		in := InfractionTypeInput{Label: cur.Label, Description: cur.Description, PointPenalty: cur.PointPenalty}
		if p.Label != nil {
			label := strings.TrimSpace(*p.Label)
			p.Label = &label
			in.Label = label
		}
		if p.Description != nil {
			desc := strings.TrimSpace(*p.Description)
			p.Description = &desc
			in.Description = desc
		}
		if p.PointPenalty != nil {
			in.PointPenalty = *p.PointPenalty
		}
		if err := validateInfractionType(in); err != nil {
			return model.InfractionType{}, err
		}
	}

	if _, err := t.dispatch(state.EditInfractionType{ID: id, Patch: p}); err != nil {
		return model.InfractionType{}, err
	}
	it, _ := state.FindInfractionType(t.state, id)
	return it, nil
}

func (t *Tracker) RemoveInfractionType(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dispatch(state.RemoveInfractionType{ID: id})
	return err
}

// Penalize logs an infraction of typeID against memberID.
func (t *Tracker) Penalize(memberID, typeID, note string) (model.Infraction, error) {
	note = strings.TrimSpace(note)
	if len(note) > 500 {
		return model.Infraction{}, invalid("note", "must be at most 500 characters")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	inf := model.Infraction{
		ID:       t.newID(),
		TypeID:   typeID,
		MemberID: memberID,
		At:       t.now(),
		Note:     note,
	}
	if _, err := t.dispatch(state.PenalizeMember{Infraction: inf}); err != nil {
		return model.Infraction{}, err
	}
	return inf, nil
}

func (t *Tracker) CompensateInfraction(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dispatch(state.CompensateInfraction{InfractionID: id})
	return err
}
