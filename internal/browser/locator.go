package browser

import (
	_ "embed"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

//go:embed locate.js
var locateScript string

// refAttribute tags located elements so later actions can address them by selector.
const refAttribute = "data-listpilot-ref"

// locateResult is what locate.js returns for a match.
type locateResult struct {
	Ref         string `json:"ref"`
	Description string `json:"description"`
}

// locatorExpression builds the expression evaluated in the page for one strategy.
func locatorExpression(strategy schemas.LocatorStrategy, query string) (string, error) {
	switch strategy {
	case schemas.LocateByLabel, schemas.LocateByPlaceholder, schemas.LocateByRoleButton, schemas.LocateByText:
	default:
		return "", fmt.Errorf("unsupported locator strategy %q", strategy)
	}
	s, err := json.Marshal(string(strategy))
	if err != nil {
		return "", err
	}
	q, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s)", locateScript, s, q), nil
}

// refSelector turns a tag assigned by locate.js into a CSS selector.
func refSelector(ref string) string {
	return fmt.Sprintf(`[%s=%q]`, refAttribute, ref)
}

// uploadAttribute marks the file input chosen for one upload.
const uploadAttribute = "data-listpilot-upload"

// uploadInputScript finds the file input behind a located element: the element
// itself, a descendant, the control of a label, or the first file input on the page.
// Marks left by earlier uploads are cleared before the input is tagged with token.
const uploadInputScript = `(function (sel, token) {
  const el = document.querySelector(sel);
  const isFile = (n) => n && n.tagName === 'INPUT' && n.type === 'file';
  let input = null;
  if (isFile(el)) input = el;
  else if (el && isFile(el.control)) input = el.control;
  else if (el) input = el.querySelector('input[type="file"]');
  if (!input) input = document.querySelector('input[type="file"]');
  if (!input) return false;
  document.querySelectorAll('[' + %[1]s + ']').forEach((n) => n.removeAttribute(%[1]s));
  input.setAttribute(%[1]s, token);
  return true;
})(%[2]s, %[3]s)`

// uploadExpression tags the input for selector with token; uploadSelector(token)
// addresses it afterwards.
func uploadExpression(selector, token string) (string, error) {
	attr, err := json.Marshal(uploadAttribute)
	if err != nil {
		return "", err
	}
	s, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	t, err := json.Marshal(token)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(uploadInputScript, attr, s, t), nil
}

func uploadSelector(token string) string {
	return fmt.Sprintf(`input[%s=%q]`, uploadAttribute, token)
}
