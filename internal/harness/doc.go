// Package harness runs pipeline scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: salary_over_65
//	description: "Secondary rebate applies from age 65"
//	pipeline: ../pipelines/salary.json   # relative to the scenario file
//	resources:                           # optional inline payloads by path
//	  tables/2024.json: { ... }
//	inputs:
//	  gross: 20000
//	  age: 70
//	expect:
//	  outputs:
//	    paye: 1666.67
//	  record:                            # optional intermediate keys
//	    annual: 240000
//	  error: OUT_OF_RANGE                # expect failure instead
//	  error_key: age
//
// Resources not given inline are read from files relative to the scenario.
// Numbers compare with an absolute tolerance of 1e-9; other values compare
// exactly. Unknown fields are rejected so typos fail loudly.
//
// # Golden Snapshots
//
// RunWithGolden writes the canonical JSON of the scenario outcome (inputs,
// final record, outputs and error) to testdata/golden/<name>.golden.
package harness
