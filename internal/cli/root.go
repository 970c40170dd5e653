package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/pipeline"

	"github.com/spf13/cobra"
)

// Generator is the part of the content pipeline the CLI drives.
type Generator interface {
	GenerateQuizContent(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error)
	GenerateImages(ctx context.Context, questions []domain.Question, userKeys []string, progress pipeline.ProgressFunc)
	KeyHealth() []domain.KeyHealthRecord
	ValidateConnection(ctx context.Context) pipeline.ProbeResult
}

// GeneratorFactory builds the generator lazily so --help works without
// configuration.
type GeneratorFactory func(ctx context.Context) (Generator, error)

// NewRootCmd wires the quizctl command tree.
func NewRootCmd(newGenerator GeneratorFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "quizctl",
		Short:         "Operator tool for the quiz generation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProbeCommand(newGenerator))
	root.AddCommand(newGenerateCommand(newGenerator))
	return root
}

func newProbeCommand(newGenerator GeneratorFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity with the first key of the active provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator(cmd.Context())
			if err != nil {
				return err
			}
			res := gen.ValidateConnection(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("probe failed: %s", res.Message)
			}
			return nil
		},
	}
}

// writeKeyHealth prints one row per credential.
func writeKeyHealth(w io.Writer, records []domain.KeyHealthRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tORIGIN\tSTATUS\tUSES\tERRORS\tLAST ERROR")
	for _, r := range records {
		lastErr := "-"
		if r.LastErrorAt != nil {
			lastErr = r.LastErrorAt.Format("15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.MaskedID, r.Origin, r.Status, r.UsageCount, r.ErrorCount, lastErr)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
