package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior data-security analyst reviewing the raw output of a DSPM scan. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: critical, high, medium, low, info.
- counts.total must equal counts.critical + counts.high + counts.medium + counts.low.
- findings is an array of objects grouping the detected sensitive-data exposures (emails, SSNs, card numbers, credentials and similar); include at least a title, severity, and summary. Keep items concise.
- If the raw output is not parseable, describe what the scan reported as conservatively as possible.

Schema (example with empty values):
{
  "counts": {"critical": 0, "high": 0, "medium": 0, "low": 0, "total": 0},
  "findings": [
    {
      "title": "<string>",
      "severity": "<critical|high|medium|low|info>",
      "summary": "<string>",
      "recommendation": "<string>"
    }
  ],
  "advice": "<string>"
}`
}

// GetUserPrompt wraps the raw scan output into a compact user message.
func GetUserPrompt(findings string) string {
	return fmt.Sprintf("Summarize this scan output as JSON per the schema.\n\nScan output:\n%s", findings)
}
