package cli

import (
	"context"
	"fmt"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/common"
	"tailorflow/internal/engine"
	"tailorflow/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Analyze how a resume covers a job description's keywords",
	Long: `Analyze a resume against a job description without tailoring it.
The report lists the keywords derived from the posting, which of them the
resume already covers, which are missing, and the resulting match score.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	an := analyzer.New()
	if cfg.Analyzer.VocabularyFile != "" {
		if err := an.LoadVocabularyFile(cfg.Analyzer.VocabularyFile); err != nil {
			return fmt.Errorf("failed to load vocabulary: %w", err)
		}
	}
	eng := engine.New(an)

	createInput := func(fp *common.FileProcessor, args []string) (tailorInput, error) {
		var input tailorInput
		if err := fp.ReadJSONFile(args[0], &input.Resume); err != nil {
			return tailorInput{}, err
		}
		if err := fp.ReadJSONFile(args[1], &input.Job); err != nil {
			return tailorInput{}, err
		}
		if err := input.Job.Validate(); err != nil {
			return tailorInput{}, fmt.Errorf("invalid job description: %w", err)
		}
		return input, nil
	}

	logDetails := func(input tailorInput, cmdCfg common.CommandConfig) {
		logger.Info("Starting keyword analysis",
			"job_title", input.Job.Title,
			"output_format", cmdCfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, input tailorInput) (types.KeywordAnalysis, error) {
		jobKeywords := eng.JobKeywords(&input.Job, &input.Options)
		resumeText := analyzer.FlattenResume(&input.Resume)
		return types.KeywordAnalysis{
			JobKeywords:     jobKeywords,
			MatchedKeywords: an.KeywordMatches(resumeText, jobKeywords),
			MissingKeywords: an.MissingKeywords(resumeText, jobKeywords),
			MatchScore:      an.MatchScore(resumeText, jobKeywords),
		}, nil
	}

	err := common.RunFileCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Keyword analysis completed")
	return nil
}
