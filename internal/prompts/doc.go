// Package prompts contains the instruction text sent to the planner.
//
// Prompt text is Go code rather than config files because it is program
// logic: it benefits from compile-time embedding and can be validated by
// tests. Operators who need to tune the persona without a rebuild can
// point prompt_file at a replacement on disk.
package prompts
