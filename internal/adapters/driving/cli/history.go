package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

var (
	historyLimit        int
	historyJSON         bool
	historyType         string
	historyIntent       string
	historyConversation string
	entryJSON           bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent processing history",
	Long: `Lists the most recent audit entries across all stages, newest first.

Filters narrow the list and combine:
  --type json|email|pdf            entries of one document format
  --intent invoice|rfq|...         entries of one intent
  --conversation <id>              one conversation, oldest first`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var entryCmd = &cobra.Command{
	Use:   "entry [memory-id]",
	Short: "Show a single audit entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntry,
}

var threadCmd = &cobra.Command{
	Use:   "thread [thread-id]",
	Short: "Show the entries of a thread",
	Long:  `Lists every audit entry tagged with a thread id, oldest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runThread,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	historyCmd.Flags().StringVar(&historyType, "type", "", "only entries of this document format")
	historyCmd.Flags().StringVar(&historyIntent, "intent", "", "only entries of this intent")
	historyCmd.Flags().StringVar(&historyConversation, "conversation", "", "only entries of this conversation")
	threadCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	entryCmd.Flags().BoolVar(&entryJSON, "json", false, "output the entry as JSON")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(threadCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	filter, err := historyFilter()
	if err != nil {
		return err
	}

	var result driving.HistoryResult
	if filter.IsEmpty() {
		result = pipelineService.History(cmd.Context(), historyLimit)
	} else {
		result = pipelineService.Browse(cmd.Context(), filter)
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	if historyJSON {
		return printJSON(cmd, result)
	}

	if len(result.History) == 0 {
		if filter.IsEmpty() {
			cmd.Println("No entries recorded yet.")
		} else {
			cmd.Println("No entries match the filter.")
		}
		return nil
	}
	title := "Recent entries"
	if !filter.IsEmpty() {
		title = "Matching entries"
	}
	cmd.Println(titleStyle.Render(fmt.Sprintf("%s (%d)", title, result.TotalEntries)))
	cmd.Println()
	printHistoryItems(cmd, result.History)
	return nil
}

// historyFilter validates the filter flags.
func historyFilter() (driving.HistoryFilter, error) {
	filter := driving.HistoryFilter{
		ConversationID: historyConversation,
		Limit:          historyLimit,
	}
	if historyType != "" {
		format, ok := domain.ParseDocumentFormat(historyType)
		if !ok {
			return filter, fmt.Errorf("unknown document type %q (want json, email or pdf)", historyType)
		}
		filter.DocumentType = format
	}
	if historyIntent != "" {
		intent, ok := domain.ParseIntent(historyIntent)
		if !ok {
			return filter, fmt.Errorf("unknown intent %q (want invoice, rfq, complaint, regulation or general)", historyIntent)
		}
		filter.Intent = intent
	}
	return filter, nil
}

func runThread(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	threadID := args[0]
	result := pipelineService.Thread(cmd.Context(), threadID)
	if !result.Success {
		return errors.New(result.Error)
	}
	if historyJSON {
		return printJSON(cmd, result)
	}

	if len(result.History) == 0 {
		cmd.Printf("No entries for thread %s.\n", threadID)
		return nil
	}
	cmd.Println(titleStyle.Render(fmt.Sprintf("Thread %s (%d)", threadID, result.TotalEntries)))
	cmd.Println()
	printHistoryItems(cmd, result.History)
	return nil
}

func runEntry(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	result := pipelineService.GetEntry(cmd.Context(), args[0])
	if !result.Success || result.Entry == nil {
		return errors.New(result.Error)
	}
	if entryJSON {
		return printJSON(cmd, result.Entry)
	}

	printEntry(cmd, result.Entry)
	return nil
}

func printHistoryItems(cmd *cobra.Command, items []driving.HistoryItem) {
	for i := range items {
		item := &items[i]
		cmd.Printf("  %s  %s  %s\n",
			mutedStyle.Render(item.Timestamp.Local().Format(time.DateTime)),
			labelStyle.Render(fmt.Sprintf("%-14s", item.Source)),
			item.ID)
		cmd.Printf("      %s\n", item.Summary)
	}
}

func printEntry(cmd *cobra.Command, e *domain.Entry) {
	cmd.Println(titleStyle.Render("Entry " + e.ID))
	cmd.Printf("  %s %s\n", labelStyle.Render("Source:"), e.Source)
	cmd.Printf("  %s %s\n", labelStyle.Render("Type:"), e.DocumentType)
	cmd.Printf("  %s %s\n", labelStyle.Render("Intent:"), e.Intent)
	cmd.Printf("  %s %s\n", labelStyle.Render("Recorded:"), e.Timestamp.Local().Format(time.DateTime))
	if e.ThreadID != nil {
		cmd.Printf("  %s %s\n", labelStyle.Render("Thread:"), *e.ThreadID)
	}
	if e.ConversationID != nil {
		cmd.Printf("  %s %s\n", labelStyle.Render("Conversation:"), *e.ConversationID)
	}
	cmd.Println()
	cmd.Println(titleStyle.Render("Extracted values"))
	printValues(cmd, e.ExtractedValues)
}
