package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codefox-dev/codefox/internal/config"
	"github.com/codefox-dev/codefox/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit   int
		sender  string
		keyword string
		failed  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent executions",
		Long:  "Lists recent execution records from the history database, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configFile); err != nil {
				return fmt.Errorf("loading config file: %w", err)
			}
			dsn := config.Config().Database.DSN
			if dsn == "" {
				return fmt.Errorf("no database DSN configured")
			}

			store, err := history.NewStore(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer store.Close()

			filter := history.ListFilter{
				SenderID: sender,
				Keyword:  keyword,
				PageSize: limit,
			}
			if failed {
				f := false
				filter.Success = &f
			}

			records, total, err := store.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("listing executions: %w", err)
			}

			if jsonOutput {
				printJSON(map[string]any{"records": records, "total": total})
				return nil
			}

			if len(records) == 0 {
				fmt.Println("no executions recorded")
				return nil
			}
			for _, rec := range records {
				printRecord(rec)
			}
			fmt.Printf("\n%d of %d records\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of records to print")
	cmd.Flags().StringVar(&sender, "sender", "", "Only show executions of this sender")
	cmd.Flags().StringVar(&keyword, "search", "", "Only show executions whose code or error matches")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed executions")
	return cmd
}
