package tracker

import (
	"strings"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

func (t *Tracker) AddMember(in MemberInput) (model.Member, error) {
	in.Name = strings.TrimSpace(in.Name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := validateMember(in, t.state.Members, ""); err != nil {
		return model.Member{}, err
	}
	m := model.Member{
		ID:        t.newID(),
		Name:      in.Name,
		Color:     in.Color,
		Avatar:    in.Avatar,
		CreatedAt: t.now(),
	}
	if _, err := t.dispatch(state.AddMember{Member: m}); err != nil {
		return model.Member{}, err
	}
	m, _ = state.FindMember(t.state, m.ID)
	return m, nil
}

func (t *Tracker) EditMember(id string, p state.MemberPatch) (model.Member, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := state.FindMember(t.state, id); ok {
		in := MemberInput{Name: cur.Name, Color: cur.Color, Avatar: cur.Avatar}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			p.Name = &name
			in.Name = name
		}
		if p.Color != nil {
			in.Color = *p.Color
		}
		if err := validateMember(in, t.state.Members, id); err != nil {
			return model.Member{}, err
		}
		if p.Points != nil && *p.Points < 0 {
			return model.Member{}, invalid("points", "must not be negative")
		}
	}

	if _, err := t.dispatch(state.EditMember{ID: id, Patch: p}); err != nil {
		return model.Member{}, err
	}
	m, _ := state.FindMember(t.state, id)
	return m, nil
}

func (t *Tracker) RemoveMember(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dispatch(state.RemoveMember{ID: id})
	return err
}
