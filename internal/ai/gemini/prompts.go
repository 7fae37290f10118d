package gemini

import "fmt"

// buildAnalogyPrompt assembles the generation prompt. Kept intentionally
// plain; prompt tuning is out of scope for the service layer.
func buildAnalogyPrompt(topic, audience string) string {
	if audience == "" {
		audience = "a curious adult with no background in the subject"
	}
	return fmt.Sprintf(`Explain the concept %q to %s using a single vivid analogy.

Respond with a JSON object with exactly these fields:
{
  "title": "short title for the analogy",
  "analogy": "the analogy itself, 2-4 paragraphs",
  "mapping": "how each part of the analogy maps to the real concept",
  "caveats": "where the analogy breaks down",
  "keywords": ["3-5 concrete visual keywords for illustrating the analogy"]
}`, topic, audience)
}
