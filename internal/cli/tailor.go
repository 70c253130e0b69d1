package cli

import (
	"context"
	"fmt"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/common"
	"tailorflow/internal/engine"
	"tailorflow/internal/orchestrator"
	"tailorflow/internal/types"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume-file] [job-description-file]",
	Short: "Tailor a resume for a specific job description",
	Long: `Tailor a structured resume for a specific job description.
The command takes two arguments: the path to the resume JSON file and
the path to the job description JSON file. The configured backends are
tried in order; when none is available the built-in rule-based engine
produces the result.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if tailorConfig.OutputFormat == "" {
			tailorConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(tailorConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTailor,
}

var (
	tailorConfig   common.CommandConfig
	tailorTemplate string
	tailorFocus    []string
	tailorKeywords []string
	tailorNoATS    bool
)

func init() {
	tailorCmd.Flags().StringVarP(&tailorConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	tailorCmd.Flags().StringVar(&tailorConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	tailorCmd.Flags().StringVar(&tailorTemplate, "template", string(types.TemplateModern), "Resume template: modern, minimalist, or creative")
	tailorCmd.Flags().StringSliceVar(&tailorFocus, "focus", nil, "Focus areas to emphasize")
	tailorCmd.Flags().StringSliceVar(&tailorKeywords, "keywords", nil, "Extra industry keywords to target")
	tailorCmd.Flags().BoolVar(&tailorNoATS, "no-ats", false, "Disable ATS keyword optimization")

	// Add completion for format flag
	_ = tailorCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// tailorInput bundles the decoded input documents for one tailoring run
type tailorInput struct {
	Resume  types.ResumeDocument
	Job     types.JobDescription
	Options types.TailoringOptions
}

func tailoringOptionsFromFlags() (types.TailoringOptions, error) {
	template := types.Template(tailorTemplate)
	if !template.Valid() {
		return types.TailoringOptions{}, fmt.Errorf("unknown template '%s' (expected modern, minimalist, or creative)", tailorTemplate)
	}
	return types.TailoringOptions{
		Template:         template,
		FocusAreas:       tailorFocus,
		IndustryKeywords: tailorKeywords,
		OptimizeForATS:   !tailorNoATS,
	}, nil
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	opts, err := tailoringOptionsFromFlags()
	if err != nil {
		return err
	}

	an := analyzer.New()
	if cfg.Analyzer.VocabularyFile != "" {
		if err := an.LoadVocabularyFile(cfg.Analyzer.VocabularyFile); err != nil {
			return fmt.Errorf("failed to load vocabulary: %w", err)
		}
	}
	orch := orchestrator.NewFromConfig(&cfg.Backends, engine.New(an), an, logger)

	createInput := func(fp *common.FileProcessor, args []string) (tailorInput, error) {
		input := tailorInput{Options: opts}
		if err := fp.ReadJSONFile(args[0], &input.Resume); err != nil {
			return tailorInput{}, err
		}
		if err := fp.ReadJSONFile(args[1], &input.Job); err != nil {
			return tailorInput{}, err
		}
		if err := input.Resume.Validate(); err != nil {
			return tailorInput{}, fmt.Errorf("invalid resume: %w", err)
		}
		if err := input.Job.Validate(); err != nil {
			return tailorInput{}, fmt.Errorf("invalid job description: %w", err)
		}
		return input, nil
	}

	logDetails := func(input tailorInput, cmdCfg common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"candidate", input.Resume.PersonalInfo.Name,
			"job_title", input.Job.Title,
			"template", string(input.Options.Template),
			"output_format", cmdCfg.OutputFormat)
	}

	tailorOperation := func(ctx context.Context, input tailorInput) (types.TailoringResult, error) {
		return orch.Tailor(ctx, input.Resume, input.Job, input.Options), nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		tailorConfig,
		args,
		createInput,
		tailorOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	logger.Info("Resume tailoring completed successfully")
	return nil
}
