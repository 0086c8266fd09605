package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/censo-link/internal/audit"
	"github.com/censo-link/internal/community"
	"github.com/censo-link/internal/config"
	"github.com/censo-link/internal/db"
	"github.com/censo-link/internal/diag"
	"github.com/censo-link/internal/etl"
	"github.com/censo-link/internal/match"
	"github.com/censo-link/internal/validation"
)

var (
	configPath   string
	inputDir     string
	outputPath   string
	intermediate string
	communities  string
	auditDSN     string
	debugMode    bool
	logJSON      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "censo-link",
		Short: "Link the prenatal registry to births and referrals",
		Long: `Rule-based record linkage of the prenatal registry (censo) to the birth
registry (partos) and the referral log (refs) by fuzzy name match within a
gestational-age window, with a community fallback for unmatched records.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVar(&inputDir, "input-dir", "", "directory holding the input CSV files")
	flags.StringVar(&outputPath, "output", "", "final output CSV")
	flags.StringVar(&intermediate, "intermediate", "", "registry-births intermediate CSV")
	flags.StringVar(&communities, "communities", "", "community list, one name per line")
	flags.StringVar(&auditDSN, "audit-dsn", "", "database for the audit trail (postgres:// or sqlite:)")
	flags.BoolVar(&debugMode, "debug", false, "trace every row")
	flags.BoolVar(&logJSON, "log-json", false, "log as JSON")

	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createStageCmd())
	rootCmd.AddCommand(createValidateCmd())
	rootCmd.AddCommand(createCommunitiesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// session is everything a command needs, built once from flags and config.
type session struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	runID   string
	sink    diag.Sink
	conn    *db.Connection
	tracker *audit.Tracker
}

func newSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := diag.NewLogger(debugMode, logJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	s := &session{cfg: cfg, log: log, runID: uuid.New().String()}
	sinks := diag.Multi{diag.NewLogSink(log)}

	if cfg.Audit.DSN != "" {
		s.conn, err = db.Open(cfg.Audit.DSN)
		if err != nil {
			return nil, fmt.Errorf("audit trail: %w", err)
		}
		s.tracker = audit.NewTracker(s.conn, s.runID, log)
		if err := s.tracker.EnsureSchema(); err != nil {
			s.conn.Close()
			return nil, err
		}
		sinks = append(sinks, s.tracker)
	}

	s.sink = diag.WithRunID(sinks, s.runID)
	log.Debugw("Session ready", "run_id", s.runID, "config", configPath)
	return s, nil
}

func applyFlags(cfg *config.Config) {
	if inputDir != "" {
		cfg.Paths.InputDir = inputDir
	}
	if outputPath != "" {
		cfg.Paths.Output = outputPath
	}
	if intermediate != "" {
		cfg.Paths.Intermediate = intermediate
	}
	if communities != "" {
		cfg.Paths.Communities = communities
	}
	if auditDSN != "" {
		cfg.Audit.DSN = auditDSN
	}
}

// close flushes the audit trail with the outcome of the run.
func (s *session) close(runErr error) error {
	defer s.log.Sync()
	if s.tracker == nil {
		return runErr
	}
	defer s.conn.Close()

	s.log.Debugw("Flushing audit trail", "run_id", s.runID, "events", s.tracker.Pending())

	status := "ok"
	if runErr != nil {
		status = "failed: " + runErr.Error()
	}
	if err := s.tracker.Finish(debugMode, status, s.cfg); err != nil {
		s.log.Errorw("Failed to write audit trail", "error", err)
		if runErr == nil {
			return err
		}
		return runErr
	}

	stats, err := s.tracker.RunStatistics(s.runID)
	if err == nil {
		fmt.Printf("Audit trail: run %s, %d event kinds recorded\n", s.runID, len(stats))
	}
	return runErr
}

func (s *session) registry() (match.Communities, error) {
	path := s.cfg.Paths.Communities
	if path == "" {
		s.log.Warnw("No community list configured, community fallback disabled")
		return nil, nil
	}
	reg, err := community.Load(path, s.cfg.Community.ExpandAddresses)
	if err != nil {
		return nil, err
	}
	if s.cfg.Community.ExpandAddresses && !reg.Expanding() {
		s.log.Warnw("Address expansion requested but this build has no libpostal support")
	}
	s.log.Infow("Loaded communities", "path", path, "count", reg.Len())
	return reg, nil
}

func (s *session) pipeline() (*etl.Pipeline, error) {
	reg, err := s.registry()
	if err != nil {
		return nil, err
	}
	return etl.NewPipeline(s.cfg, reg, s.sink, s.log), nil
}

func printSummary(res *etl.StageResult) {
	sum := res.Summary
	fmt.Printf("Stage %s: %d base rows\n", res.Stage, sum.BaseRows)
	fmt.Printf("  %-26s %d\n", "name matched:", sum.NameMatched)
	fmt.Printf("  %-26s %d\n", "no name match:", sum.NoNameMatch)
	fmt.Printf("  %-26s %d\n", "no candidates in window:", sum.NoCandidates)
	fmt.Printf("  %-26s %d\n", "no base name:", sum.NoBaseName)
	fmt.Printf("  %-26s %d\n", "anchor date unparsable:", sum.AnchorUnparsed)
	fmt.Printf("  %-26s %d\n", "community rows:", sum.CommunityRows)
	if res.Path != "" {
		fmt.Printf("  written to %s (%d rows, %d columns)\n", res.Path, len(res.Rows), len(res.Columns))
	}
}

// createRunCmd creates the full two-stage run
func createRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run both linkage stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			p, err := s.pipeline()
			if err != nil {
				return s.close(err)
			}

			res, err := p.Run(debugMode)
			if err != nil {
				return s.close(err)
			}
			printSummary(res.Births)
			printSummary(res.Referrals)
			return s.close(nil)
		},
	}
}

// createStageCmd creates the single-stage command
func createStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "stage [births|referrals]",
		Short:     "Run one linkage stage",
		Long:      `Run one stage alone. The referrals stage reads the intermediate file of an earlier births stage.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{etl.StageBirths, etl.StageReferrals},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			p, err := s.pipeline()
			if err != nil {
				return s.close(err)
			}

			res, err := p.RunStage(debugMode, args[0])
			if err != nil {
				return s.close(err)
			}
			printSummary(res)
			return s.close(nil)
		},
	}
}

// createValidateCmd creates the manual-match report command
func createValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Score the registry's manual births links",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			p := etl.NewPipeline(s.cfg, nil, s.sink, s.log)

			censo, err := p.LoadCenso()
			if err != nil {
				return s.close(err)
			}
			partos, err := p.LoadPartos()
			if err != nil {
				return s.close(err)
			}

			v := validation.NewValidator(s.cfg.Validation.ManualField, s.cfg.Validation.ManualPrefix, s.cfg.Match.NameThreshold)
			report, err := v.Validate(censo, partos)
			if err != nil {
				return s.close(err)
			}
			return s.close(report.Write(os.Stdout))
		},
	}
}

// createCommunitiesCmd creates the community list check
func createCommunitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "communities",
		Short: "Print the normalized community list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			reg, err := community.Load(s.cfg.Paths.Communities, s.cfg.Community.ExpandAddresses)
			if err != nil {
				return s.close(err)
			}
			for _, name := range reg.Names() {
				fmt.Println(name)
			}
			fmt.Printf("%d communities\n", reg.Len())
			return s.close(nil)
		},
	}
}
