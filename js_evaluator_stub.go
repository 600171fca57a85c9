//go:build !js_eval

package phpfile

// NewJSEvaluator needs the js_eval build tag; without it there is no
// JavaScript engine and nil is returned.
func NewJSEvaluator(...EngineOption) Evaluator {
	return nil
}
