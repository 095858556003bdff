package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aseptiq/fillsched/config"
	"github.com/aseptiq/fillsched/core/validate"
	infralogger "github.com/aseptiq/fillsched/infra/logger"
	"github.com/aseptiq/fillsched/internal/lotio"
)

var validateData string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a lot table without planning anything",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateData, "data", "d", "", "lot table (csv), overrides config")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunOverrides(cfg, validateData, "", "")
	log := infralogger.New("validate")

	records, err := lotio.ReadLots(cfg.Run.DataPath)
	if err != nil {
		return err
	}
	lots, res := validate.Preflight(records, cfg.Planning)
	for _, w := range res.Warnings {
		log.Warnf("%s", w)
	}
	for _, e := range res.Errors {
		log.Errorf("%s", e)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %d error(s), %d warning(s)", cfg.Run.DataPath, len(res.Errors), len(res.Warnings))
	}
	log.Infof("%s: %d lots ok, %d warning(s)", cfg.Run.DataPath, len(lots), len(res.Warnings))
	return nil
}
