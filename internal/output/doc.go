// Package output provides styled terminal output for wren.
//
// # Usage
//
//	output.Success("Generated 12 files")
//	output.Info("Next steps:")
//	output.Step("wren generate sandwich.schema")
//	output.Warning("Skipping already existing en-us/sandwich-Bread.en-us.lg")
//	output.Error("Missing template string")
//
// # Verbose Mode
//
//	output.SetVerbose(true)
//	output.Verbose("This only prints in verbose mode")
//
// # Engine feedback
//
// A Reporter adapts generation feedback to these printers and counts
// problems, so the CLI can choose its exit status after a run:
//
//	r := output.NewReporter()
//	engine.Generate(ctx, engine.Options{..., Feedback: r.Feedback})
//	if r.Errors() > 0 { ... }
//
// # Styling
//
//   - Success: 🔥 green bold
//   - Error: ❌ red bold
//   - Warning: ⚠️ yellow
//   - Info: ℹ️ cyan
//   - Step: indented gray
//   - Verbose: 🔍 gray (when enabled)
package output
