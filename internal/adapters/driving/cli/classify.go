package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

var classifyFlags documentFlags

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a document without processing it",
	Long: `Detects the format (email, json, pdf) and intent (invoice, rfq, complaint,
regulation, general) of a document and shows which handler it would go to.
The decision is recorded in the audit trail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyFlags.register(classifyCmd)
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	doc, err := readDocument(cmd, args, &classifyFlags)
	if err != nil {
		return err
	}

	result := pipelineService.Classify(cmd.Context(), driving.ClassifyRequest{
		Content:  doc.content,
		Metadata: doc.metadata,
		ModelID:  classifyFlags.model,
	})

	if classifyFlags.asJSON {
		if err := printJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printClassifyResult(cmd, &result)
	}

	if !result.Success {
		return errProcessingFailed
	}
	return nil
}

func printClassifyResult(cmd *cobra.Command, result *driving.ClassifyResult) {
	if !result.Success {
		cmd.Printf("%s %s\n", statusLabel(false), result.Error)
	}
	if result.Classification != nil {
		printClassification(cmd, result.Classification)
	}
	cmd.Printf("  %s %s\n", labelStyle.Render("Handler:"), result.RoutingTarget)
	if result.MemoryID != "" {
		cmd.Printf("  %s %s\n", labelStyle.Render("Memory ID:"), result.MemoryID)
	}
}
