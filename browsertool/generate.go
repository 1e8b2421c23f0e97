package browsertool

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pochehq/agentloop/tool"
)

func (t *Toolset) generateTestTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actions": map[string]any{
				"type":        "array",
				"description": "Recorded actions, each with action (navigate, click, fill, screenshot, assert_visible, assert_text) and params",
			},
			"test_name": map[string]any{"type": "string", "description": "Name for the generated test", "default": "generated_test"},
		},
		"required": []string{"actions"},
	}
	return tool.NewFunctionTool(
		"browser_generate_test",
		"Generate Go browser-test source code from a sequence of recorded actions",
		params,
		func(_ context.Context, args map[string]any) (any, error) {
			rawActions, _ := args["actions"].([]any)
			testName, _ := args["test_name"].(string)
			return GenerateTestCode(testName, rawActions), nil
		},
	)
}

// GenerateTestCode renders a runnable chromedp test for the given recorded
// action sequence.
func GenerateTestCode(testName string, rawActions []any) string {
	needsScreenshot := false
	var body []string
	var checks []string
	textVars := 0

	for _, raw := range rawActions {
		action, _ := raw.(map[string]any)
		actionType, _ := action["action"].(string)
		params, _ := action["params"].(map[string]any)

		switch actionType {
		case "navigate":
			url, _ := params["url"].(string)
			if url == "" {
				url = "/"
			}
			body = append(body, fmt.Sprintf("\t\tchromedp.Navigate(%q),", url))

		case "click":
			selector, _ := params["selector"].(string)
			body = append(body, fmt.Sprintf("\t\tchromedp.Click(%q, chromedp.ByQuery),", selector))

		case "fill":
			selector, _ := params["selector"].(string)
			value, _ := params["value"].(string)
			body = append(body, fmt.Sprintf("\t\tchromedp.SetValue(%q, %q, chromedp.ByQuery),", selector, value))

		case "screenshot":
			filename, _ := params["filename"].(string)
			if filename == "" {
				filename = "screenshot.png"
			}
			needsScreenshot = true
			body = append(body,
				"\t\tchromedp.CaptureScreenshot(&screenshot),",
				"\t\tchromedp.ActionFunc(func(_ context.Context) error {",
				fmt.Sprintf("\t\t\treturn os.WriteFile(%q, screenshot, 0o644)", filename),
				"\t\t}),",
			)

		case "assert_visible":
			selector, _ := params["selector"].(string)
			body = append(body, fmt.Sprintf("\t\tchromedp.WaitVisible(%q, chromedp.ByQuery),", selector))

		case "assert_text":
			selector, _ := params["selector"].(string)
			expected, _ := params["text"].(string)
			textVars++
			varName := fmt.Sprintf("text%d", textVars)
			body = append(body, fmt.Sprintf("\t\tchromedp.Text(%q, &%s, chromedp.ByQuery),", selector, varName))
			checks = append(checks,
				fmt.Sprintf("\tif !strings.Contains(%s, %q) {", varName, expected),
				fmt.Sprintf("\t\tt.Errorf(\"element %%q text %%q does not contain %%q\", %q, %s, %q)", selector, varName, expected),
				"\t}",
			)
		}
	}

	imports := []string{"\t\"context\"", "\t\"testing\""}
	if needsScreenshot {
		imports = append(imports, "\t\"os\"")
	}
	if textVars > 0 {
		imports = append(imports, "\t\"strings\"")
	}
	imports = append(imports, "", "\t\"github.com/chromedp/chromedp\"")

	var b strings.Builder
	b.WriteString("package e2e\n\nimport (\n")
	b.WriteString(strings.Join(imports, "\n"))
	b.WriteString("\n)\n\n")
	b.WriteString(fmt.Sprintf("func Test%s(t *testing.T) {\n", exportedName(testName)))
	b.WriteString("\tctx, cancel := chromedp.NewContext(context.Background())\n")
	b.WriteString("\tdefer cancel()\n\n")
	if needsScreenshot {
		b.WriteString("\tvar screenshot []byte\n")
	}
	for i := 1; i <= textVars; i++ {
		b.WriteString(fmt.Sprintf("\tvar text%d string\n", i))
	}
	if needsScreenshot || textVars > 0 {
		b.WriteString("\n")
	}
	b.WriteString("\terr := chromedp.Run(ctx,\n")
	b.WriteString(strings.Join(body, "\n"))
	if len(body) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("\t)\n")
	b.WriteString("\tif err != nil {\n\t\tt.Fatal(err)\n\t}\n")
	if len(checks) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(checks, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// exportedName turns a free-form test name into an exported Go identifier.
func exportedName(name string) string {
	if name == "" {
		name = "generated_test"
	}
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	if b.Len() == 0 {
		return "GeneratedTest"
	}
	return b.String()
}
