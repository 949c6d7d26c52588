package cli

import (
	"encoding/json"
	"strings"
)

// schemaTypes lists every NDJSON record type in output order
var schemaTypes = []string{"mode", "run_start", "step", "run_end", "summary", "perception", "error"}

// SchemaCmd outputs JSON Schema for simnav output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (mode,run_start,step,run_end,summary,perception,error). Default: all"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]map[string]any{
		"mode":       modeSchema(),
		"run_start":  runStartSchema(),
		"step":       stepSchema(),
		"run_end":    runEndSchema(),
		"summary":    summarySchema(),
		"perception": perceptionSchema(),
		"error":      errorSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaTypes
	}

	defs := map[string]any{}
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	out := map[string]any{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "simnav Output Schemas",
		"description": "JSON Schema definitions for all simnav NDJSON output types",
		"definitions": defs,
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func constType(name string) map[string]any {
	return map[string]any{"type": "string", "const": name}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": description}
}

var (
	cornerEnum = []string{"NE", "NW", "SE", "SW"}
	modeEnum   = []string{"vision", "fallback"}
)

func record(title, description string, props map[string]any, required ...string) map[string]any {
	props["schemaVersion"] = prop("integer", "Record schema version")
	return map[string]any{
		"type":        "object",
		"title":       title,
		"description": description,
		"properties":  props,
		"required":    append([]string{"type", "schemaVersion"}, required...),
	}
}

func positionSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Goal position in simulator coordinates",
		"properties": map[string]any{
			"x": prop("number", "East-west coordinate"),
			"y": prop("number", "Height"),
			"z": prop("number", "North-south coordinate"),
		},
	}
}

func modeSchema() map[string]any {
	return record("Mode Selected", "Result of the one-shot vision self-test", map[string]any{
		"type":                constType("mode"),
		"mode":                enumProp("Navigation mode for the session", modeEnum...),
		"transport_connected": prop("boolean", "Whether the event stream was up at selection time"),
		"reason":              enumProp("Why the mode was chosen", "frame_ok", "transport_disconnected", "capture_failed", "timeout", "undecodable_frame"),
	}, "mode", "transport_connected", "reason")
}

func runStartSchema() map[string]any {
	return record("Run Start", "A goal attempt began", map[string]any{
		"type":      constType("run_start"),
		"batch_id":  prop("string", "Batch identifier"),
		"run_id":    prop("string", "Run identifier"),
		"index":     prop("integer", "1-based position in the batch"),
		"total":     prop("integer", "Number of runs in the batch"),
		"corner":    enumProp("Target corner", cornerEnum...),
		"mode":      enumProp("Mode the run starts in", modeEnum...),
		"goal":      positionSchema(),
		"timestamp": map[string]any{"type": "string", "format": "date-time", "description": "ISO8601 start time"},
	}, "batch_id", "run_id", "index", "total", "corner", "mode", "timestamp")
}

func stepSchema() map[string]any {
	return record("Step", "One executed navigation action", map[string]any{
		"type":       constType("step"),
		"run_id":     prop("string", "Run identifier"),
		"step":       prop("integer", "1-based step index within the run"),
		"mode":       enumProp("Mode in force", modeEnum...),
		"phase":      enumProp("State machine phase", "aligning", "stepping", "succeeded", "exhausted"),
		"action":     enumProp("Action kind", "align", "forward", "avoid", "steer", "correct", "cautious", "progress", "degrade"),
		"turn":       prop("number", "Relative turn in degrees"),
		"distance":   prop("number", "Forward distance"),
		"heading":    prop("number", "Believed heading after the action, degrees in [0,360)"),
		"stuck":      prop("integer", "Avoidance escalation level"),
		"collisions": prop("integer", "Collisions counted so far in the run"),
		"obstacle":   prop("boolean", "Perception saw an obstacle ahead"),
		"reason":     prop("string", "Why a non-default action was taken (no_frame, capture_failed, command_failed, ...)"),
	}, "step", "mode", "phase", "action")
}

func runEndSchema() map[string]any {
	return record("Run End", "A goal attempt terminated", map[string]any{
		"type":             constType("run_end"),
		"run_id":           prop("string", "Run identifier"),
		"corner":           enumProp("Target corner", cornerEnum...),
		"reached":          prop("boolean", "Goal event arrived"),
		"collisions":       prop("integer", "Collisions in the run, -1 when the run failed"),
		"steps":            prop("integer", "Steps taken"),
		"mode":             enumProp("Mode the run started in", modeEnum...),
		"degraded":         prop("boolean", "Vision starved and the run finished in fallback"),
		"failed":           prop("boolean", "The run aborted"),
		"error":            prop("string", "Abort reason"),
		"duration_seconds": prop("number", "Wall time of the run"),
	}, "run_id", "corner", "reached", "collisions", "steps", "mode", "duration_seconds")
}

func summarySchema() map[string]any {
	return record("Batch Summary", "Aggregate of every run in a batch", map[string]any{
		"type":            constType("summary"),
		"batch_id":        prop("string", "Batch identifier"),
		"mode":            enumProp("Mode chosen by the self-test", modeEnum...),
		"outcomes":        map[string]any{"type": "array", "items": map[string]any{"type": "object"}, "description": "Per-run outcomes in order"},
		"attempted":       prop("integer", "Runs attempted"),
		"succeeded":       prop("integer", "Runs that reached the goal"),
		"failed":          prop("integer", "Runs that aborted"),
		"mean_collisions": prop("number", "Mean collisions over runs that did not fail"),
		"vision_used":     prop("boolean", "At least one run started in vision mode"),
		"started_at":      map[string]any{"type": "string", "format": "date-time"},
		"finished_at":     map[string]any{"type": "string", "format": "date-time"},
	}, "batch_id", "mode", "outcomes", "attempted", "succeeded", "failed", "mean_collisions", "vision_used")
}

func perceptionSchema() map[string]any {
	return record("Perception Result", "Obstacle analysis of one image file", map[string]any{
		"type":                     constType("perception"),
		"file":                     prop("string", "Analyzed file"),
		"width":                    prop("integer", "Image width in pixels"),
		"height":                   prop("integer", "Image height in pixels"),
		"obstacle_ahead":           prop("boolean", "Masked pixels in the forward region exceed the threshold"),
		"recommended_turn_degrees": prop("number", "Suggested relative turn; positive is left"),
		"obstacle_pixels":          prop("integer", "Masked pixels in the forward region"),
		"sector_pixels":            map[string]any{"type": "array", "items": map[string]any{"type": "integer"}, "minItems": 3, "maxItems": 3, "description": "Masked pixels in the left, center and right sectors"},
		"error":                    prop("string", "Why the file could not be analyzed"),
	}, "file", "obstacle_ahead", "recommended_turn_degrees")
}

func errorSchema() map[string]any {
	return record("Error", "Error message from simnav", map[string]any{
		"type": constType("error"),
		"code": map[string]any{
			"type":        "string",
			"description": "Error code",
			"enum": []string{
				codeInvalidFlags,
				codeInvalidConfig,
				codeInvalidCorner,
				codeBatchFailed,
				codeReportFailed,
				codeNotTerminal,
				codeUndecodable,
				codeConfigWrite,
			},
		},
		"message": prop("string", "Human-readable error description"),
		"hint":    prop("string", "Suggested fix"),
	}, "code", "message")
}
