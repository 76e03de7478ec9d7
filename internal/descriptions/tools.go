package descriptions

import "sort"

// Tool names
const (
	ToolValidate   = "sondage_validate_file"
	ToolExtract    = "sondage_extract"
	ToolShow       = "sondage_show"
	ToolEdit       = "sondage_edit"
	ToolAccept     = "sondage_validate"
	ToolReopen     = "sondage_reopen"
	ToolSave       = "sondage_save_session"
	ToolLoad       = "sondage_load_session"
	ToolExport     = "sondage_export"
	ToolServerInfo = "sondage_server_info"
)

const (
	ValidateFileDescription = `Verify that a PDF report can be read before extracting from it.

**When to use:** Before sondage_extract, especially on reports received from a drilling contractor.

**Why it's useful:** Checks size, structure (relaxed validation) and the text layer, and returns the page count.

**Best practices:** Scanned reports without a text layer validate but yield no keywords; check the per-page report after extraction.`

	ExtractDescription = `Extract pressuremeter readings (Pf*, Pl*, Module) from every page of a PDF report.

**When to use:** Once per report. Each page is matched to a borehole (sondage) by its name token, e.g. "SP12"; pages without one are named "Page N". A successful run replaces the boreholes held for review; save the session first to keep them. A failed run leaves them untouched.

**How it works:**
• Values are read below each keyword header within a horizontal tolerance window
• When Pf* and Pl* share one column, the interleaved stream is split into the two sequences
• Irregular vertical spacing inserts an empty cell (gap) or flags a suspicious pair
• Readings from consecutive pages of the same borehole are concatenated

**Depth ladder:** depth_start, depth_end and depth_step apply to every borehole first seen in this run. Start must be below end and step positive. The end depth is included only when reachable.

**Returns:** the run report: boreholes found, per-page counts, merged flag, warnings, skipped pages, and boreholes whose column lengths disagree.`

	ShowDescription = `Show one borehole: its depth ladder and every keyword column with flagged indices.

**When to use:** To review a borehole after extraction, before editing or validating it.

**Flags:** indices marked by anomaly detection that have not been edited yet.`

	EditDescription = `Apply one review edit to a column of a borehole.

**Operations:**
• delete (index): remove a value, later values move up
• insert (index, value): insert a value or an empty cell before index
• append (value): add a value at the end
• null (index): blank a value
• set (index, value): replace a value
• move (index, to): move a value to another position

Leave value empty for an empty cell. Editing a validated borehole re-opens it.`

	AcceptDescription = `Validate a borehole once all its columns, depth included, have the same length.

**When to use:** After reviewing and editing. Only validated boreholes are exported; the export follows validation order.

**Errors:** a length mismatch lists every column with its length.`

	ReopenDescription = `Re-open a validated borehole for further editing. It is removed from the export until validated again.`

	SaveSessionDescription = `Save the review state (all boreholes, flags, edits, validation order) to a YAML session file.

**When to use:** To hand the review to a person with an editor, or to resume later with sondage_load_session.`

	LoadSessionDescription = `Load a YAML session file, replacing the current review state.`

	ExportDescription = `Write the validated boreholes to an Excel workbook.

**Layout:** one block per borehole, four columns apart: the name on the first row in bold, then "Profondeur", "EM" and "PL" in italics, readings from the third row. Empty cells stay blank.

**Requires:** at least one validated borehole.`

	ServerInfoDescription = `Describe the server: version, PDF directory and its reports, extraction settings and the available tools.

**When to use:** First call of a session, to discover which reports can be processed.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolValidate:   ValidateFileDescription,
	ToolExtract:    ExtractDescription,
	ToolShow:       ShowDescription,
	ToolEdit:       EditDescription,
	ToolAccept:     AcceptDescription,
	ToolReopen:     ReopenDescription,
	ToolSave:       SaveSessionDescription,
	ToolLoad:       LoadSessionDescription,
	ToolExport:     ExportDescription,
	ToolServerInfo: ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
