package state

import "github.com/dukerupert/choreweek/internal/model"

func FindMember(s model.AppState, id string) (model.Member, bool) {
	if i := memberIndex(s.Members, id); i >= 0 {
		return s.Members[i], true
	}
	return model.Member{}, false
}

func FindTask(s model.AppState, id string) (model.Task, bool) {
	if i := taskIndex(s.Tasks, id); i >= 0 {
		return s.Tasks[i], true
	}
	return model.Task{}, false
}

func FindReward(s model.AppState, id string) (model.Reward, bool) {
	if i := rewardIndex(s.Rewards, id); i >= 0 {
		return s.Rewards[i], true
	}
	return model.Reward{}, false
}

func FindInfractionType(s model.AppState, id string) (model.InfractionType, bool) {
	if i := infractionTypeIndex(s.InfractionTypes, id); i >= 0 {
		return s.InfractionTypes[i], true
	}
	return model.InfractionType{}, false
}
