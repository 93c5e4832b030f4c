package goals

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is the in-memory fallback store for goals.
type MemoryRepo struct {
	mutex sync.RWMutex
	goals map[string]map[string]Goal
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		goals: make(map[string]map[string]Goal),
	}
}

func (r *MemoryRepo) Store(_ context.Context, goal Goal) (*Goal, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userGoals, ok := r.goals[goal.UserID]
	if !ok {
		userGoals = make(map[string]Goal)
		r.goals[goal.UserID] = userGoals
	}
	userGoals[goal.ID] = goal

	return &goal, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID, goalID string) (*Goal, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	goal, ok := r.goals[userID][goalID]
	if !ok {
		return nil, ErrGoalNotFound
	}
	return &goal, nil
}

func (r *MemoryRepo) List(_ context.Context, userID string) ([]Goal, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	goalsList := make([]Goal, 0, len(r.goals[userID]))
	for _, goal := range r.goals[userID] {
		goalsList = append(goalsList, goal)
	}

	sort.SliceStable(goalsList, func(i, j int) bool {
		return goalsList[i].TargetDate.Before(goalsList[j].TargetDate.Time)
	})

	return goalsList, nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID, goalID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.goals[userID][goalID]; !ok {
		return ErrGoalNotFound
	}
	delete(r.goals[userID], goalID)
	return nil
}
