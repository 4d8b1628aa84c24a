package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripsplit/tripsplitd/internal/core/receipt"
)

// receiptCmd runs the receipt parser over OCR text from a file or stdin and
// prints the structured result. Useful for checking the extraction
// heuristics against real receipts without a running server.
var receiptCmd = &cobra.Command{
	Use:   "receipt [file]",
	Short: "Parse OCR receipt text and print the structured result",
	Long: `Run the rules-based receipt parser over raw OCR text and print the
extracted merchant, items and totals as JSON. Reads from the given file, or
from stdin when no file is named.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		parsed := receipt.NewParser().Parse(cmd.Context(), string(raw))
		out, err := json.MarshalIndent(parsed, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(receiptCmd)
}
