package commands

import (
	"encoding/json"
	"io"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/cache"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult prints the data of res, or returns its error when there is
// nothing to print.
func printResult[T any](w io.Writer, res cache.Result[T]) error {
	if res.Err != nil && !res.HasData {
		return res.Err
	}
	return printJSON(w, res.Data)
}

// printAction prints the outcome of a write and returns the failure, if any.
func printAction(w io.Writer, err error, success string) error {
	if err != nil {
		return err
	}
	return printJSON(w, actions.Result{Success: true, Message: success})
}
