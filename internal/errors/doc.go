// Package errors provides coded, presentable errors for the vinterp host and
// CLI.
//
// Errors are organized into categories:
//   - protocol: frames and edit batches that fail to decode or apply
//   - hydration: pre-rendered markup that does not match the id list
//   - config: configuration files that are missing or invalid
//   - cli: command usage and input problems
//
// Each code (e.g. "E103") maps to a short message, a longer detail and a
// documentation URL. Violations raised by the interpreter convert with
// FromViolation, which also carries the batch position and the records
// around the offending one:
//
//	if err := in.Apply(batch); err != nil {
//	    fmt.Println(errors.FromError(err, errors.CodeViolation).Format())
//	}
//	// Output:
//	// ERROR E103: Stack underflow
//	//
//	//   batch 7, edit 2
//	//
//	//        1 │ CreateTextNode id=4 text="x"
//	//   →    2 │ AppendChildren id=0 count=3
//	//
//	//   The record pops more nodes than the operand stack holds.
//	//
//	//   Learn more: https://vango.dev/docs/vinterp/errors/E103
package errors
