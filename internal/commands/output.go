package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-devflow-backend/internal/envelope"
)

// printedError marks a failure whose envelope already reached stdout, so
// Execute does not log it a second time.
type printedError struct {
	err error
}

func (e printedError) Error() string { return e.err.Error() }
func (e printedError) Unwrap() error { return e.err }

// printResult writes r as indented JSON. A failure envelope also becomes the
// command's error so the process exits non-zero.
func printResult[T any](cmd *cobra.Command, r envelope.Response[T]) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	if !r.Success {
		return printedError{err: r.Err()}
	}
	return nil
}
