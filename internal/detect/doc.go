// Package detect infers an agent's runtime state from its captured terminal
// output.
//
// The launcher programs agents run (Claude Code, Codex and similar
// interactive CLIs) draw a spinner with elapsed time while working, stop on
// permission prompts, and return to an input prompt when idle. The detector
// matches those cues against the most recent non-empty lines.
//
// # Priority
//
// Detection checks, in order:
//  1. Working: spinner or "esc to interrupt" line; busy, or stuck once the
//     parsed elapsed time passes the configured threshold
//  2. Error: launcher-level failures (API, auth, rate limit, crash)
//  3. Blocked: permission prompts and direct questions to the user
//  4. Idle: the launcher's input prompt
//  5. Unknown: nothing recognized
//
// Working wins over everything else so that a question earlier in the
// scrollback does not mask an agent that has since resumed.
package detect
