package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/manager"
)

// checkReport is the JSON document `inferd check` prints.
type checkReport struct {
	Config   string                `json:"config"`
	Artifact *manager.ArtifactInfo `json:"artifact,omitempty"`
	Backend  manager.SanityReport  `json:"backend"`
	OK       bool                  `json:"ok"`
	Error    string                `json:"error,omitempty"`
}

func buildCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Preflight the model artifact and the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			report := runCheck(cfg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.OK {
				return fmt.Errorf("preflight failed")
			}
			return nil
		},
	}
}

func runCheck(cfg config.Config) checkReport {
	report := checkReport{Config: "ok", OK: true}

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelPath: cfg.ModelPath,
		Backend:   cfg.Backend,
		ServerBin: cfg.ServerBin,
		ServerURL: cfg.ServerURL,
	})
	report.Backend = mgr.SanityCheck()
	if report.Backend.Error != "" {
		report.OK = false
		report.Error = report.Backend.Error
	}

	// Attach mode has no local artifact; the remote server owns it.
	if !(cfg.Backend == config.BackendLlamaServer && cfg.ServerURL != "") {
		info, err := manager.PreflightArtifact(cfg.ModelPath)
		if err != nil {
			report.OK = false
			report.Error = err.Error()
		} else {
			report.Artifact = &info
		}
	}
	return report
}
