// Package config implements the user configuration actor (SPEC_FULL
// Supplemented Features #2): a dedicated Actor<AppConfig> that owns the
// canonical in-memory config and is the single writer that persists it,
// debounced, to disk as JSON via github.com/spf13/viper.
package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"novywave/dataflow"
	"novywave/protocol"
)

// saveDebounce coalesces bursts of config-relevant signal changes (a drag
// resizing the docked panel, a flurry of scope-expand clicks) into one
// disk write.
const saveDebounce = 500 * time.Millisecond

// Store holds the canonical AppConfig behind a ReducerActor and persists
// it to configDir/novywave.json.
type Store struct {
	ra   *dataflow.ReducerActor[protocol.AppConfig]
	v    *viper.Viper
	path string
	log  *logrus.Entry

	saveMu    sync.Mutex
	saveTimer *time.Timer
}

// NewStore loads the config at configDir/novywave.json (or defaults, or a
// migrated/recreated value per protocol.PlanMigration) and starts the
// actor that owns it from then on.
func NewStore(ctx context.Context, configDir string, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	v := viper.New()
	v.SetConfigName("novywave")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("NOVYWAVE")
	v.AutomaticEnv()

	s := &Store{v: v, path: filepath.Join(configDir, "novywave.json"), log: log}
	initial, err := s.loadFromDisk()
	if err != nil {
		log.WithError(err).Warn("config: load failed, starting from defaults")
		initial = protocol.DefaultAppConfig()
	}
	s.ra = dataflow.NewReducerActor(ctx, initial, 0)
	return s
}

// Signal exposes the reactive config value, e.g. for the App to forward
// ConfigLoaded/ConfigSaved pushes.
func (s *Store) Signal() *dataflow.Signal[protocol.AppConfig] { return s.ra.Signal() }

// Get reads the current in-memory config.
func (s *Store) Get() protocol.AppConfig { return s.ra.Get() }

// Stop tears down the owning actor. It does not flush a pending debounced
// save; callers that need a guaranteed final write should call SaveNow
// first.
func (s *Store) Stop() {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveMu.Unlock()
	s.ra.Stop()
}

// Replace overwrites the whole config (the explicit SaveConfig upstream
// message, §6.1) and persists immediately.
func (s *Store) Replace(cfg protocol.AppConfig) error {
	cfg.App.Version = protocol.CurrentConfigVersion
	s.ra.Dispatch(func(protocol.AppConfig) protocol.AppConfig { return cfg })
	return s.SaveNow(cfg)
}

// Mutate applies f to the current config and schedules a debounced save;
// this is how TrackedFiles/SelectedVariables/WaveformTimeline changes
// flow into the persisted workspace section without each of those
// packages knowing config exists.
func (s *Store) Mutate(f func(protocol.AppConfig) protocol.AppConfig) {
	s.ra.Dispatch(f)
	s.scheduleSave()
}

func (s *Store) scheduleSave() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := s.SaveNow(s.ra.Get()); err != nil {
			s.log.WithError(err).Error("config: debounced save failed")
		}
	})
}

// SaveNow writes cfg to disk immediately, creating configDir if needed.
func (s *Store) SaveNow(cfg protocol.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "config: mkdir")
	}
	s.v.Set("app", cfg.App)
	s.v.Set("ui", cfg.UI)
	s.v.Set("workspace", cfg.Workspace)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errors.Wrap(err, "config: write")
	}
	return nil
}

// loadFromDisk reads the persisted config and applies protocol.
// PlanMigration (§6.2): an unrecognised version recreates defaults
// rather than failing.
func (s *Store) loadFromDisk() (protocol.AppConfig, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return protocol.DefaultAppConfig(), nil
	}
	if err := s.v.ReadInConfig(); err != nil {
		return protocol.AppConfig{}, errors.Wrap(err, "config: read")
	}

	loadedVersion := s.v.GetInt("app.version")
	strategy := protocol.PlanMigration(loadedVersion)

	switch strategy.Kind {
	case protocol.MigrationRecreate:
		s.log.WithField("loadedVersion", loadedVersion).Warn("config: unknown version, recreating defaults")
		return protocol.DefaultAppConfig(), nil
	default: // None or Upgrade: best-effort unmarshal, stamp current version
		var cfg protocol.AppConfig
		if err := s.v.Unmarshal(&cfg); err != nil {
			s.log.WithError(err).Warn("config: unmarshal failed, recreating defaults")
			return protocol.DefaultAppConfig(), nil
		}
		if strategy.Kind == protocol.MigrationUpgrade {
			s.log.WithFields(logrus.Fields{"from": strategy.From, "to": strategy.To}).Info("config: upgrading on load")
			cfg.App.Version = protocol.CurrentConfigVersion
		}
		return cfg, nil
	}
}
