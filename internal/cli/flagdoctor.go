package cli

// validateFlags centralizes common flag combinations to keep behavior consistent.
func validateFlags(globals *Globals, reportPath string, saveReport bool) error {
	if reportPath != "" && saveReport {
		return outputErrorCommon(globals, codeInvalidFlags, "--report cannot be combined with --save-report", "drop one of them")
	}
	// quiet + text hides the only channel a human reads
	if globals != nil && globals.Format == "text" && globals.Quiet {
		return outputErrorCommon(globals, codeInvalidFlags, "--quiet is only supported with ndjson output", "switch to --format ndjson or drop --quiet")
	}
	return nil
}
