package entity

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

// WorkingHours of a branch. Weekdays are 1-7, Monday-Sunday.
type WorkingHours struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
	WorkDays   []int  `json:"work_days"`
}

type BranchFeatures struct {
	TimeTracking       bool `json:"time_tracking"`
	TaskManagement     bool `json:"task_management"`
	Notifications      bool `json:"notifications"`
	Metrics            bool `json:"metrics"`
	WorkloadManagement bool `json:"workload_management"`
}

type NotificationPrefs struct {
	Enabled bool `json:"enabled"`
	Email   bool `json:"email"`
	Push    bool `json:"push"`
	InApp   bool `json:"in_app"`
}

// BranchConfig is the structured sub-object stored serialized in a single
// cell of the Branches sheet.
type BranchConfig struct {
	Timezone      string            `json:"timezone"`
	WorkingHours  WorkingHours      `json:"working_hours"`
	Features      BranchFeatures    `json:"features"`
	Notifications NotificationPrefs `json:"notifications"`
}

// DefaultBranchConfig is the documented fallback used whenever the config
// cell is empty, malformed or fails schema validation.
func DefaultBranchConfig() BranchConfig {
	return BranchConfig{
		Timezone: "UTC-3",
		WorkingHours: WorkingHours{
			Start:      "09:00",
			End:        "18:00",
			BreakStart: "12:00",
			BreakEnd:   "13:00",
			WorkDays:   []int{1, 2, 3, 4, 5},
		},
		Features: BranchFeatures{
			TimeTracking:       true,
			TaskManagement:     true,
			Notifications:      true,
			Metrics:            true,
			WorkloadManagement: true,
		},
		Notifications: NotificationPrefs{
			Enabled: true,
			Email:   true,
			Push:    true,
			InApp:   true,
		},
	}
}

const branchConfigSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "timezone": {"type": "string"},
    "working_hours": {
      "type": "object",
      "properties": {
        "start": {"type": "string"},
        "end": {"type": "string"},
        "break_start": {"type": "string"},
        "break_end": {"type": "string"},
        "work_days": {
          "type": "array",
          "items": {"type": "integer", "minimum": 1, "maximum": 7}
        }
      }
    },
    "features": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    },
    "notifications": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    }
  }
}`

var branchConfigSchema = func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(branchConfigSchemaJSON))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("branch_config.json", doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile("branch_config.json")
}()

// ParseBranchConfig validates the serialized config cell against the schema
// and decodes it. Any failure yields the default config, never an error: a
// hand-mangled config cell must not take the whole branch row down.
func ParseBranchConfig(cell string) BranchConfig {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return DefaultBranchConfig()
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(cell))
	if err != nil {
		return DefaultBranchConfig()
	}
	if err := branchConfigSchema.Validate(instance); err != nil {
		return DefaultBranchConfig()
	}
	cfg := DefaultBranchConfig()
	if err := json.Unmarshal([]byte(cell), &cfg); err != nil {
		return DefaultBranchConfig()
	}
	return cfg
}

type Branch struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Manager   string       `json:"manager"`
	Active    bool         `json:"active"`
	Config    BranchConfig `json:"config"`
	CreatedAt string       `json:"createdAt,omitempty"`
}

// Branches column layout, 0-indexed.
const (
	branchColID = iota
	branchColName
	branchColManager
	branchColActive
	branchColConfig
	branchColCreatedAt
	branchColumns
)

var BranchSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "Branches", Columns: branchColumns},
	MinColumns: 4,
	KeyColumn:  branchColID,
}

func BranchFromRow(row rowstore.Row) (Branch, error) {
	if err := BranchSchema.Check(row); err != nil {
		return Branch{}, err
	}
	r := ReadRow(row)
	return Branch{
		ID:        r.String(branchColID),
		Name:      r.String(branchColName),
		Manager:   r.String(branchColManager),
		Active:    r.Bool(branchColActive),
		Config:    ParseBranchConfig(r.String(branchColConfig)),
		CreatedAt: r.String(branchColCreatedAt),
	}, nil
}

func (b Branch) Cells() []string {
	config, err := json.Marshal(b.Config)
	if err != nil {
		config = nil
	}
	return WriteRow(branchColumns).
		SetString(branchColID, b.ID).
		SetString(branchColName, b.Name).
		SetString(branchColManager, b.Manager).
		SetBool(branchColActive, b.Active).
		SetString(branchColConfig, string(config)).
		SetString(branchColCreatedAt, b.CreatedAt).
		Cells()
}
