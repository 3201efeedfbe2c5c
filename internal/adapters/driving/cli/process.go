package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// errProcessingFailed makes a failed pipeline run exit non-zero.
var errProcessingFailed = errors.New("processing failed")

var processFlags documentFlags

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Classify a document and run its handler",
	Long: `Classifies a document by format and intent, then routes it to the JSON
or email handler. Every step is recorded in the audit trail.

PDF files are converted to text with pdftotext and .eml files are parsed
before classification. Use '-' to read from stdin.

Examples:
  docflow process invoice.json
  docflow process complaint.eml --thread support-42
  docflow process --text "Please quote 500 units" --model gpt-4o-mini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	processFlags.register(processCmd)
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	doc, err := readDocument(cmd, args, &processFlags)
	if err != nil {
		return err
	}

	result := pipelineService.Process(cmd.Context(), driving.ProcessRequest{
		Content:     doc.content,
		ContentType: doc.contentType,
		Metadata:    doc.metadata,
		ModelID:     processFlags.model,
	})

	if processFlags.asJSON {
		if err := printJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printProcessResult(cmd, &result)
	}

	if !result.Success {
		return errProcessingFailed
	}
	return nil
}

func printProcessResult(cmd *cobra.Command, result *driving.ProcessResult) {
	cmd.Printf("%s %s\n", statusLabel(result.Success), result.Message)
	if result.MemoryID != "" {
		cmd.Printf("  %s %s\n", labelStyle.Render("Memory ID:"), result.MemoryID)
	}
	if result.Data == nil {
		return
	}

	cmd.Println()
	printClassification(cmd, &result.Data.Classification)
	cmd.Printf("  %s %s\n", labelStyle.Render("Handler:"), result.Data.RoutingTarget)

	if len(result.Data.ProcessingResult) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Analysis"))
		printValues(cmd, result.Data.ProcessingResult)
	}
}

func printClassification(cmd *cobra.Command, c *domain.Classification) {
	cmd.Println(titleStyle.Render("Classification"))
	cmd.Printf("  %s %s\n", labelStyle.Render("Format:"), c.Format)
	cmd.Printf("  %s %s\n", labelStyle.Render("Intent:"), c.Intent)
	cmd.Printf("  %s %.2f\n", labelStyle.Render("Confidence:"), c.Confidence)
	if c.Reasoning != "" {
		cmd.Printf("  %s %s\n", labelStyle.Render("Reasoning:"), c.Reasoning)
	}
}

func printValues(cmd *cobra.Command, values domain.Values) {
	data, err := json.MarshalIndent(values, "  ", "  ")
	if err != nil {
		cmd.Printf("  %s\n", mutedStyle.Render(fmt.Sprintf("(unprintable: %v)", err)))
		return
	}
	cmd.Printf("  %s\n", data)
}
