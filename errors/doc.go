// Package errors provides structured error types for omadb.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the location path inside the table, the absolute byte
// offset, a typed Value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidLayout).
//		Path("class[1]", "TPLB").
//		Offset(0x4040).
//		Detail("body overruns declared length").
//		Build()
//
// Or use convenience constructors for the decode taxonomy:
//
//	err := errors.BufferUnderrun(pos, 4, 1)
//	err := errors.MagicMismatch(4, 0x01010000, actual)
//
// Kinds are matched with the exported sentinels:
//
//	if errors.Is(err, omaerrors.ErrBufferUnderrun) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
