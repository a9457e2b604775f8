package tracker

import (
	"slices"
	"strings"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

func (t *Tracker) AddTask(in TaskInput) (model.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Frequency == "" {
		in.Frequency = model.FrequencyDaily
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := validateTask(in, t.state.Members); err != nil {
		return model.Task{}, err
	}
	task := model.Task{
		ID:                t.newID(),
		Name:              in.Name,
		Description:       strings.TrimSpace(in.Description),
		Points:            in.Points,
		Frequency:         in.Frequency,
		AssignedMemberIDs: slices.Clone(in.AssignedMemberIDs),
		IsCollaborative:   in.IsCollaborative,
		CreatedAt:         t.now(),
	}
	if _, err := t.dispatch(state.AddTask{Task: task}); err != nil {
		return model.Task{}, err
	}
	task, _ = state.FindTask(t.state, task.ID)
	return task, nil
}

func (t *Tracker) EditTask(id string, p state.TaskPatch) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := state.FindTask(t.state, id); ok {
		in := TaskInput{
			Name:              cur.Name,
			Points:            cur.Points,
			Frequency:         cur.Frequency,
			AssignedMemberIDs: cur.AssignedMemberIDs,
			IsCollaborative:   cur.IsCollaborative,
		}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			p.Name = &name
			in.Name = name
		}
		if p.Points != nil {
			in.Points = *p.Points
		}
		if p.Frequency != nil {
			in.Frequency = *p.Frequency
		}
		if p.AssignedMemberIDs != nil {
			in.AssignedMemberIDs = *p.AssignedMemberIDs
		}
		if p.IsCollaborative != nil {
			in.IsCollaborative = *p.IsCollaborative
		}
		if err := validateTask(in, t.state.Members); err != nil {
			return model.Task{}, err
		}
	}

	if _, err := t.dispatch(state.EditTask{ID: id, Patch: p}); err != nil {
		return model.Task{}, err
	}
	task, _ := state.FindTask(t.state, id)
	return task, nil
}

func (t *Tracker) RemoveTask(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dispatch(state.RemoveTask{ID: id})
	return err
}

// MarkTask records whether memberID has done taskID today. Repeating the
// current value is accepted and changes nothing.
func (t *Tracker) MarkTask(taskID, memberID string, completed bool) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.dispatch(state.MarkTask{TaskID: taskID, MemberID: memberID, Completed: completed}); err != nil {
		return model.Task{}, err
	}
	task, _ := state.FindTask(t.state, taskID)
	return task, nil
}
