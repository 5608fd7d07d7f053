package commands

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerport/internal/config"
	"github.com/cleared-dev/ledgerport/internal/fiscal"
	"github.com/cleared-dev/ledgerport/internal/logging"
	"github.com/cleared-dev/ledgerport/internal/records"
)

var oneShare = decimal.NewFromInt(1)

// driftDistance is the edit distance at which a new account name is
// reported as resembling an existing one.
const driftDistance = 2

// project is a loaded config with paths resolved against its directory.
type project struct {
	cfg *config.Config
	dir string
	log *zap.Logger
}

func openProject(configPath string) (*project, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return &project{cfg: cfg, dir: filepath.Dir(absPath), log: log}, nil
}

func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

func (p *project) builder() (*fiscal.Builder, error) {
	cal, err := p.cfg.Calendar()
	if err != nil {
		return nil, err
	}
	src := records.NewDir(p.path(p.cfg.Source.Dir), p.cfg.Format())
	opts := fiscal.Options{
		Years:              p.cfg.Fiscal.Years,
		Calendar:           cal,
		Close:              p.cfg.Closing.Enabled,
		CloseYears:         p.cfg.Closing.Years,
		CloseDistributions: p.cfg.Closing.CloseDistributions,
		Closing:            p.cfg.ClosingOptions(),
		DriftDistance:      driftDistance,
	}
	return fiscal.NewBuilder(src, opts, p.log.Named("fiscal")), nil
}

func (p *project) close() {
	_ = p.log.Sync()
}
