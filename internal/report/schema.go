package report

// Schema is the JSON Schema (Draft 2020-12) for the metricsbar JSON
// output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/metricsbar/panel-report.schema.json",
  "title": "metricsbar Code Metrics Report",
  "description": "Output schema for metricsbar analyze --format=json",
  "type": "object",
  "required": ["version", "panel"],
  "properties": {
    "version": {
      "type": "string",
      "description": "metricsbar version"
    },
    "panel": { "$ref": "#/$defs/Panel" }
  },
  "$defs": {
    "Panel": {
      "type": "object",
      "required": [
        "name", "file_count", "files",
        "maintainability_index", "complexity", "comment_weight",
        "lines_of_code", "logical_lines_of_code", "comment_lines_of_code",
        "bugs", "difficulty", "intelligent_content", "vocabulary",
        "average", "sum", "violations", "records", "collected_at"
      ],
      "properties": {
        "name": { "const": "metricsbar.code_metrics" },
        "file_count": { "type": "integer", "minimum": 0 },
        "files": {
          "type": "array",
          "items": { "type": "string" },
          "description": "Loaded files left after exclusion, in load order"
        },
        "maintainability_index": { "type": "number" },
        "complexity": { "type": "number" },
        "comment_weight": { "type": "number" },
        "lines_of_code": { "type": "integer" },
        "logical_lines_of_code": { "type": "integer" },
        "comment_lines_of_code": { "type": "integer" },
        "bugs": { "type": "number" },
        "difficulty": { "type": "number" },
        "intelligent_content": { "type": "number" },
        "vocabulary": {
          "type": "number",
          "description": "Summed Halstead vocabulary divided by file_count; 0 without files"
        },
        "average": { "$ref": "#/$defs/Aggregate" },
        "sum": { "$ref": "#/$defs/Aggregate" },
        "violations": { "$ref": "#/$defs/ViolationCounts" },
        "records": {
          "type": "array",
          "items": { "$ref": "#/$defs/Record" }
        },
        "collected_at": { "type": "string", "format": "date-time" }
      }
    },
    "Aggregate": {
      "type": "object",
      "required": ["loc", "lloc", "cloc", "ccn", "mi", "bugs", "vocabulary"],
      "properties": {
        "loc": { "type": "number" },
        "lloc": { "type": "number" },
        "cloc": { "type": "number" },
        "blank": { "type": "number" },
        "functions": { "type": "number" },
        "ccn": { "type": "number" },
        "max_function_ccn": { "type": "number" },
        "length": { "type": "number" },
        "vocabulary": { "type": "number" },
        "volume": { "type": "number" },
        "difficulty": { "type": "number" },
        "effort": { "type": "number" },
        "time": { "type": "number" },
        "bugs": { "type": "number" },
        "intelligent_content": { "type": "number" },
        "mi": { "type": "number" },
        "mi_without_comments": { "type": "number" },
        "comment_weight": { "type": "number" }
      }
    },
    "ViolationCounts": {
      "type": "object",
      "required": ["info", "warning", "error", "critical"],
      "properties": {
        "info": { "type": "integer", "minimum": 0 },
        "warning": { "type": "integer", "minimum": 0 },
        "error": { "type": "integer", "minimum": 0 },
        "critical": { "type": "integer", "minimum": 0 }
      }
    },
    "Record": {
      "type": "object",
      "required": ["name", "language", "loc", "lloc", "cloc", "ccn", "halstead", "mi"],
      "properties": {
        "name": { "type": "string", "description": "Absolute file path" },
        "language": { "type": "string", "enum": ["go", "php", ""] },
        "loc": { "type": "integer", "minimum": 0 },
        "lloc": { "type": "integer", "minimum": 0 },
        "cloc": { "type": "integer", "minimum": 0 },
        "blank": { "type": "integer", "minimum": 0 },
        "functions": { "type": "integer", "minimum": 0 },
        "ccn": { "type": "integer", "minimum": 0 },
        "max_function_ccn": { "type": "integer", "minimum": 0 },
        "halstead": { "$ref": "#/$defs/Halstead" },
        "mi": { "type": "number" },
        "mi_without_comments": { "type": "number" },
        "comment_weight": { "type": "number" },
        "violations": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/Violation" }
        }
      }
    },
    "Halstead": {
      "type": "object",
      "required": ["vocabulary", "length", "volume", "difficulty", "bugs"],
      "properties": {
        "distinct_operators": { "type": "integer" },
        "distinct_operands": { "type": "integer" },
        "total_operators": { "type": "integer" },
        "total_operands": { "type": "integer" },
        "length": { "type": "integer" },
        "vocabulary": { "type": "integer" },
        "volume": { "type": "number" },
        "difficulty": { "type": "number" },
        "level": { "type": "number" },
        "effort": { "type": "number" },
        "time": { "type": "number" },
        "bugs": { "type": "number" },
        "intelligent_content": { "type": "number" }
      }
    },
    "Violation": {
      "type": "object",
      "required": ["name", "level", "description"],
      "properties": {
        "name": { "type": "string" },
        "level": { "type": "string", "enum": ["info", "warning", "error", "critical"] },
        "description": { "type": "string" }
      }
    }
  }
}
`
