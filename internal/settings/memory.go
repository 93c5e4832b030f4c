package settings

import (
	"context"
	"sync"
)

// MemoryRepo is the in-memory fallback store for settings.
type MemoryRepo struct {
	mutex    sync.RWMutex
	settings map[string]UserSettings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		settings: make(map[string]UserSettings),
	}
}

func (r *MemoryRepo) Get(_ context.Context, userID string) (*UserSettings, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	userSettings, ok := r.settings[userID]
	if !ok {
		return nil, ErrSettingsNotFound
	}
	return &userSettings, nil
}

func (r *MemoryRepo) Store(_ context.Context, userSettings UserSettings) (*UserSettings, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.settings[userSettings.UserID] = userSettings
	return &userSettings, nil
}
