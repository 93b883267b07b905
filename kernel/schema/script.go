package schema

import (
	"github.com/dop251/goja"
)

// ScriptRunner executes a _script body against the incoming document,
// with the previous stored version bound as _old_doc.
type ScriptRunner interface {
	Run(script string, doc, oldDoc map[string]interface{}) (map[string]interface{}, error)
}

// GojaRunner runs scripts on an embedded ECMAScript interpreter.
type GojaRunner struct{}

func (GojaRunner) Run(script string, doc, oldDoc map[string]interface{}) (map[string]interface{}, error) {
	vm := goja.New()
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := vm.Set("_doc", doc); err != nil {
		return nil, ClientErrorf("script setup failed: %s", err.Error())
	}
	if err := vm.Set("_old_doc", oldDoc); err != nil {
		return nil, ClientErrorf("script setup failed: %s", err.Error())
	}
	if _, err := vm.RunString(script); err != nil {
		return nil, ClientErrorf("script failed: %s", err.Error())
	}
	out := vm.Get("_doc")
	if out == nil {
		return doc, nil
	}
	exported := out.Export()
	if m, ok := exported.(map[string]interface{}); ok {
		return m, nil
	}
	return doc, nil
}

// DisabledRunner rejects every script; installed when scripting is off.
type DisabledRunner struct{}

func (DisabledRunner) Run(string, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return nil, NotSupportedErrorf("scripts are disabled")
}

// runScript applies the pending _script value, rebuilding the field vector
// before indexation continues.
func runScript(runner ScriptRunner, script interface{}, obj, oldDoc map[string]interface{}) (map[string]interface{}, error) {
	if script == nil {
		return obj, nil
	}
	if runner == nil {
		return nil, NotSupportedErrorf("scripts are disabled")
	}
	switch s := script.(type) {
	case string:
		return runner.Run(s, obj, oldDoc)
	case map[string]interface{}:
		// {_chai: "..."} or {_value: "..."} wrapped bodies.
		if body, ok := s["_chai"].(string); ok {
			return runner.Run(body, obj, oldDoc)
		}
		if body, ok := s[ReservedValue].(string); ok {
			return runner.Run(body, obj, oldDoc)
		}
	}
	return nil, ClientErrorf("%s must be a string", ReservedScript)
}
