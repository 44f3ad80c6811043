package tools

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolBazaarAll     = "bazaar_all"
	ToolBazaarItem    = "bazaar_item"
	ToolLoadSnapshot  = "load_snapshot"
	ToolListSnapshots = "list_snapshots"
)

const (
	argItemID    = "item_id"
	argTimestamp = "timestamp"
)

// BazaarAllTool returns the definition of the full-feed tool.
func BazaarAllTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolBazaarAll,
		Description: "Fetch all current Hypixel SkyBlock bazaar data. Returns the full API response, including the products mapping of item ids to buy/sell summaries and quick status. The response is also saved as a local snapshot when snapshot saving is enabled.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}

// BazaarItemTool returns the definition of the single-item tool.
func BazaarItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolBazaarItem,
		Description: "Fetch current bazaar data for one item, e.g. item_id=\"ENCHANTED_COAL\". Returns the item's record, or {\"error\":\"Item not found\"} when the bazaar does not list it.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				argItemID: {
					Type:        "string",
					Description: "Bazaar product id, e.g. ENCHANTED_COAL or INK_SACK:3.",
				},
			},
			Required: []string{argItemID},
		},
	}
}

// LoadSnapshotTool returns the definition of the snapshot lookup tool.
func LoadSnapshotTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolLoadSnapshot,
		Description: "Load a previously saved bazaar snapshot by its timestamp key (YYYYMMDDHHMMSS, as returned by list_snapshots). Returns {\"error\":\"No data found for timestamp: ...\"} when no snapshot has that key.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				argTimestamp: {
					Type:        "string",
					Description: "Snapshot timestamp key, e.g. 20240102030405.",
				},
			},
			Required: []string{argTimestamp},
		},
	}
}

// ListSnapshotsTool returns the definition of the snapshot listing tool.
func ListSnapshotsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListSnapshots,
		Description: "List the timestamp keys of all saved bazaar snapshots, oldest first, as {\"timestamps\":[...]}.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}
