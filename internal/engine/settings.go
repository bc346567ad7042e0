package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/realQhimself/dopamine-app/internal/storage"
)

type CelebrationIntensity string

const (
	CelebrationFull    CelebrationIntensity = "full"
	CelebrationMinimal CelebrationIntensity = "minimal"
	CelebrationOff     CelebrationIntensity = "off"
)

func (c CelebrationIntensity) IsValid() bool {
	switch c {
	case CelebrationFull, CelebrationMinimal, CelebrationOff:
		return true
	default:
		return false
	}
}

const settingsDocVersion = 1

type settingsDoc struct {
	Version              int                  `json:"version"`
	SoundEnabled         bool                 `json:"soundEnabled"`
	HapticEnabled        bool                 `json:"hapticEnabled"`
	CelebrationIntensity CelebrationIntensity `json:"celebrationIntensity"`
	OnboardingComplete   bool                 `json:"onboardingComplete"`
}

// SettingsStore holds presentation preferences and the onboarding flag that
// gates first-run seeding.
type SettingsStore struct {
	docs  *storage.DocRepo
	state settingsDoc
}

func NewSettingsStore(docs *storage.DocRepo) *SettingsStore {
	return &SettingsStore{
		docs: docs,
		state: settingsDoc{
			Version:              settingsDocVersion,
			SoundEnabled:         true,
			HapticEnabled:        true,
			CelebrationIntensity: CelebrationFull,
		},
	}
}

func (s *SettingsStore) Load(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	doc, err := s.docs.Get(ctx, storage.DocSettings)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	if err := json.Unmarshal(doc.Data, &s.state); err != nil {
		return fmt.Errorf("decode settings document: %w", err)
	}
	if !s.state.CelebrationIntensity.IsValid() {
		s.state.CelebrationIntensity = CelebrationFull
	}
	return nil
}

func (s *SettingsStore) save(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	s.state.Version = settingsDocVersion
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode settings document: %w", err)
	}
	return s.docs.Put(ctx, storage.DocSettings, settingsDocVersion, data)
}

func (s *SettingsStore) ToggleSound(ctx context.Context) error {
	s.state.SoundEnabled = !s.state.SoundEnabled
	return s.save(ctx)
}

func (s *SettingsStore) ToggleHaptic(ctx context.Context) error {
	s.state.HapticEnabled = !s.state.HapticEnabled
	return s.save(ctx)
}

func (s *SettingsStore) SetCelebrationIntensity(ctx context.Context, v CelebrationIntensity) error {
	if !v.IsValid() {
		return fmt.Errorf("invalid celebration intensity: %q", v)
	}
	s.state.CelebrationIntensity = v
	return s.save(ctx)
}

func (s *SettingsStore) CompleteOnboarding(ctx context.Context) error {
	s.state.OnboardingComplete = true
	return s.save(ctx)
}

func (s *SettingsStore) SoundEnabled() bool       { return s.state.SoundEnabled }
func (s *SettingsStore) HapticEnabled() bool      { return s.state.HapticEnabled }
func (s *SettingsStore) OnboardingComplete() bool { return s.state.OnboardingComplete }
func (s *SettingsStore) CelebrationIntensity() CelebrationIntensity {
	return s.state.CelebrationIntensity
}
