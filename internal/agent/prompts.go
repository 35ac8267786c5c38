// internal/agent/prompts.go
package agent

import "fmt"

const decisionSystemPrompt = `You are an expert e-commerce listing operator driving a web browser.
You receive a screenshot of the current page and an instruction. Respond with STRICT JSON only.`

const decisionPromptTemplate = `Instruction: %s

Output JSON schema:
{
  "actions": [
    {
      "action": "click|type|scroll|hover|wait|upload|press|done",
      "target": "human-readable field/button name",
      "value": "optional value",
      "confidence": 0.0,
      "reason": "short reason"
    }
  ],
  "screen_state": "short description",
  "risk": "none|captcha|2fa|error|popup"
}

Rules:
- Always include at least one action.
- Use the done action if the task appears complete.
- Targets must be the visible label, placeholder, or button text of the element.
- For upload, value is the local file path to attach.
- If uncertain, include wait or scroll, then re-check.`

func decisionPrompt(instruction string) string {
	return fmt.Sprintf(decisionPromptTemplate, instruction)
}
